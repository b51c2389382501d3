package zadara

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	headerAuthorization = "Authorization"
	headerAccessKey     = "X-Access-Key"
)

// transport is the JSON plumbing shared by the console and VPSA clients.
// With envelope set, replies are unwrapped from {"response": {...}} and a
// non-zero response status is turned into an APIError.
type transport struct {
	url      string
	header   string
	secret   string
	envelope bool
	http     *http.Client
}

func newTransport(url, header, secret string, envelope bool) *transport {
	return &transport{
		url:      url,
		header:   header,
		secret:   secret,
		envelope: envelope,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *transport) do(ctx context.Context, op, method, path string, body any, result any) error {
	start := time.Now()
	code, err := t.roundTrip(ctx, method, path, body, result)
	apiRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	apiRequestsTotal.WithLabelValues(op, code).Inc()
	if err != nil {
		var ae *APIError
		if errors.As(err, &ae) {
			ae.Operation = op
		}
		return err
	}
	return nil
}

func (t *transport) roundTrip(ctx context.Context, method, path string, body any, result any) (string, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "error", fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.url+path, bodyReader)
	if err != nil {
		return "error", fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if t.header == headerAuthorization {
		req.Header.Set(headerAuthorization, "Bearer "+t.secret)
	} else {
		req.Header.Set(t.header, t.secret)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return "error", fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	code := strconv.Itoa(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return code, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return code, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		var env Envelope
		if json.Unmarshal(respBody, &env) == nil && env.Response.Message != "" {
			return code, &APIError{StatusCode: resp.StatusCode, Status: env.Response.Status, Message: env.Response.Message}
		}
		return code, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if len(respBody) == 0 {
		return code, nil
	}

	payload := respBody
	if t.envelope {
		var raw struct {
			Response json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(respBody, &raw); err != nil {
			return code, fmt.Errorf("unmarshal response: %w", err)
		}
		if len(raw.Response) == 0 {
			return code, fmt.Errorf("unmarshal response: missing response envelope")
		}
		var status EnvelopeBody
		if err := json.Unmarshal(raw.Response, &status); err != nil {
			return code, fmt.Errorf("unmarshal response status: %w", err)
		}
		if status.Status != 0 {
			return code, &APIError{StatusCode: resp.StatusCode, Status: status.Status, Message: status.Message}
		}
		payload = raw.Response
	}

	if result != nil {
		if err := json.Unmarshal(payload, result); err != nil {
			return code, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return code, nil
}

type APIError struct {
	Operation  string
	StatusCode int
	Status     int
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("zadara %s failed: http %d, status %d: %s", e.Operation, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("zadara %s failed: http %d: %s", e.Operation, e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusNotFound
	}
	return false
}

func IsUnauthorized(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusUnauthorized || ae.StatusCode == http.StatusForbidden
	}
	return false
}
