package httpclients

import (
	"context"
	"fmt"
	"io"
	"time"

	"resty.dev/v3"

	"multichat/internal/infrastructure/logger"
	"multichat/internal/utils/platformerrors"
)

// maxResponseBytes bounds how much of a vendor response is read into memory.
const maxResponseBytes = 10 * 1024 * 1024

type HTTPClientStartsAt struct{}

// NewClient returns a resty client that logs every exchange at debug level.
// Query strings and bodies are left out of the log since they can carry
// credentials and conversation text.
func NewClient(clientName string, timeout time.Duration) *resty.Client {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), HTTPClientStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		startTime, _ := r.Request.Context().Value(HTTPClientStartsAt{}).(time.Time)

		event := log.Debug().
			Str("request_id", platformerrors.RequestIDFromContext(r.Request.Context())).
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(startTime))
		if raw := r.Request.RawRequest; raw != nil {
			event = event.
				Str("method", raw.Method).
				Str("host", raw.URL.Host).
				Str("path", raw.URL.Path)
		}
		event.Msg("HTTP client request")
		return nil
	})
	return client
}

// RawResponse is a fully read HTTP response.
type RawResponse struct {
	Status int
	Body   []byte
}

// IsSuccess reports a 2xx status.
func (r *RawResponse) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// PostJSON sends body as JSON and returns the status and raw response body without
// interpreting either. Only transport failures are returned as errors.
func PostJSON(req *resty.Request, url string, body any) (*RawResponse, error) {
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(url)
	if err != nil {
		return nil, err
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return &RawResponse{Status: resp.StatusCode()}, nil
	}
	defer resp.RawResponse.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.RawResponse.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &RawResponse{Status: resp.StatusCode(), Body: data}, nil
}
