package httpclients

import (
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/platformerrors"
)

// NewClient returns a resty client that logs every upstream call at debug
// level, tagged with the client name and the originating request id.
func NewClient(clientName string, timeout time.Duration, log zerolog.Logger) *resty.Client {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.SetHeader("User-Agent", "ruleout-server/"+clientName)

	client.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
		if requestID := platformerrors.RequestIDFromContext(r.Context()); requestID != "" {
			r.SetHeader("X-Request-Id", requestID)
		}
		return nil
	})
	client.OnAfterResponse(func(c *resty.Client, r *resty.Response) error {
		event := log.Debug().
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Dur("latency", r.Time())
		if raw := r.Request.RawRequest; raw != nil {
			event = event.Str("method", raw.Method).Str("path", raw.URL.Path)
		}
		if requestID := platformerrors.RequestIDFromContext(r.Request.Context()); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		event.Msg("HTTP client request")
		return nil
	})
	return client
}

// NewStreamingTransport bounds dialing and the wait for response headers but
// leaves the body unbounded, so long event streams are not cut off.
func NewStreamingTransport(timeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	return transport
}
