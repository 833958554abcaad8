package epsonconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ErrNoContent is returned by Response.Decode when the server sent an empty body.
var ErrNoContent = errors.New("response has no content")

// unknownErrorCode is reported when a body carries an "error" key with a null
// or empty value.
const unknownErrorCode = "unknown_error"

// Request describes a single HTTP request handed to the Dispatcher.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the normalized result of a successful dispatch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// NoContent reports whether the server returned an empty body.
func (r *Response) NoContent() bool {
	return len(r.Body) == 0
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if r.NoContent() {
		return ErrNoContent
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Dispatcher executes exactly one HTTP round trip per call and turns
// transport and application failures into typed errors. It performs no
// token handling and no retries.
type Dispatcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil httpClient or logger selects the
// defaults.
func NewDispatcher(httpClient *http.Client, logger *slog.Logger) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{httpClient: httpClient, logger: logger}
}

// Send issues req and returns the decoded response.
//
// A 2xx response with an empty body yields a Response whose NoContent method
// reports true. A body carrying an "error" field yields an *APIError. Network
// failures and non-2xx responses without a JSON error yield a *TransportError.
func (d *Dispatcher) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.logger.DebugContext(ctx, "request failed", "method", req.Method, "url", req.URL, "error", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	d.logger.DebugContext(ctx, "request completed",
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(data),
	)

	return normalizeResponse(resp.StatusCode, resp.Header, data)
}

func normalizeResponse(status int, header http.Header, data []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(data)
	success := status >= 200 && status < 300

	if len(trimmed) == 0 {
		if !success {
			return nil, &TransportError{StatusCode: status}
		}
		return &Response{StatusCode: status, Header: header}, nil
	}

	if !json.Valid(trimmed) {
		if !success {
			return nil, &TransportError{StatusCode: status, Message: string(trimmed)}
		}
		return nil, &TransportError{StatusCode: status, Message: "response is not valid JSON"}
	}

	if code, desc, ok := errorFields(trimmed); ok {
		apiErr := &APIError{Code: code, Description: desc}
		if !success {
			apiErr.StatusCode = status
		}
		return nil, apiErr
	}

	if !success {
		return nil, &TransportError{StatusCode: status, Message: string(trimmed)}
	}

	return &Response{StatusCode: status, Header: header, Body: json.RawMessage(trimmed)}, nil
}

// errorFields extracts the error code and description from a JSON object
// body. Any object with an "error" key is an error, whatever its value.
// Non-object bodies carry no error.
func errorFields(body []byte) (code, description string, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", "", false
	}
	raw, ok := fields["error"]
	if !ok {
		return "", "", false
	}
	code = rawString(raw)
	if code == "" {
		code = unknownErrorCode
	}
	description = rawString(fields["error_description"])
	if description == "" {
		description = rawString(fields["message"])
	}
	return code, description, true
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
