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

	tests := []struct {
		name              string
		timeout           time.Duration
		wantHeaderTimeout time.Duration
	}{
		{name: "long timeout keeps header default", timeout: 30 * time.Second, wantHeaderTimeout: 10 * time.Second},
		{name: "short timeout caps header wait", timeout: 3 * time.Second, wantHeaderTimeout: 3 * time.Second},
		{name: "no timeout", timeout: 0, wantHeaderTimeout: 10 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewHTTPClient(tt.timeout)
			assert.Equal(t, tt.timeout, c.Timeout)

			tr, ok := c.Transport.(*http.Transport)
			require.True(t, ok)
			assert.Equal(t, tt.wantHeaderTimeout, tr.ResponseHeaderTimeout)
			assert.Equal(t, maxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
			assert.NotNil(t, tr.Proxy)
		})
	}
}
