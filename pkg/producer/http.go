package producer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/httputil"
)

// HTTPSource streams chunks from a remote producer endpoint: one POST whose
// response body is read incrementally. The connect is retried with backoff
// on transient failures; once the stream is open, a mid-stream failure is
// surfaced as-is (the parser reports the truncation).
type HTTPSource struct {
	client  *http.Client
	url     string
	payload []byte

	body io.ReadCloser
	buf  []byte
}

// NewHTTPSource creates a source for the given endpoint. The payload is sent
// as the POST body on connect. A nil client uses http.DefaultClient.
func NewHTTPSource(client *http.Client, url string, payload []byte) (*HTTPSource, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		client:  client,
		url:     url,
		payload: payload,
		buf:     make([]byte, readChunkSize),
	}, nil
}

// Next connects on first call, then reads chunks from the response body.
func (s *HTTPSource) Next(ctx context.Context) (string, error) {
	if s.body == nil {
		if err := s.connect(ctx); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := s.body.Read(s.buf)
	if n > 0 {
		return string(s.buf[:n]), nil
	}
	if err == nil {
		err = io.EOF
	}
	return "", err
}

func (s *HTTPSource) connect(ctx context.Context) error {
	return httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(s.payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return &httputil.RetryableError{Err: fmt.Errorf("producer returned %s", resp.Status)}
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return errors.New(errors.ErrCodeProducer, "producer returned %s", resp.Status)
		}
		s.body = resp.Body
		return nil
	})
}

// Close closes the open response body, if any.
func (s *HTTPSource) Close() error {
	if s.body != nil {
		err := s.body.Close()
		s.body = nil
		return err
	}
	return nil
}

// Ensure HTTPSource implements Source.
var _ Source = (*HTTPSource)(nil)
