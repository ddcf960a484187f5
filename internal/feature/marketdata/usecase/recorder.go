package usecase

// Recorder receives ingestion and chain-fetch outcomes for metrics.
type Recorder interface {
	ObserveIngest(symbol string, fetched, stored int)
	ObserveProviderError(op string)
	ObserveChainFailure(symbol string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveIngest(string, int, int) {}
func (noopRecorder) ObserveProviderError(string)    {}
func (noopRecorder) ObserveChainFailure(string)     {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
