package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(7 * time.Second)
	assert.Equal(t, 7*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 20, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 7*time.Second, tr.ResponseHeaderTimeout)
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30*time.Second, NewHTTPClient(0).Timeout)
}
