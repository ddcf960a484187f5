package cache

import (
	"time"
)

// MarketCloseHour and MarketCloseMinute mark the US equity close in New York time.
const (
	MarketCloseHour   = 16
	MarketCloseMinute = 0
)

// TimeUntilNext は loc における次の hour:minute までの期間を返します。
// now がちょうどその時刻の場合は翌日までの期間を返します。
func TimeUntilNext(hour, minute int, loc *time.Location, now time.Time) time.Duration {
	now = now.In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)

	// 今日の指定時刻が既に過ぎている場合は翌日の同時刻を使用
	if !now.Before(next) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
	}

	return next.Sub(now)
}

// TimeUntilMarketClose は次の米国市場の終値確定（ニューヨーク時間16:00）までの期間を返します。
// タイムゾーン情報が読み込めない場合はUTCの21:00を使用します。
func TimeUntilMarketClose(now time.Time) time.Duration {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return TimeUntilNext(MarketCloseHour+5, MarketCloseMinute, time.UTC, now)
	}
	return TimeUntilNext(MarketCloseHour, MarketCloseMinute, loc, now)
}
