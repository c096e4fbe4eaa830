package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/schema"
)

// JSONResponse is the machine-readable form of a response envelope
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	DurationMs int64             `json:"durationMs"`
	RequestID  string            `json:"requestId,omitempty"`
}

// JSONError is the machine-readable form of a failed request
type JSONError struct {
	Error    string        `json:"error"`
	Kind     string        `json:"kind"`
	Response *JSONResponse `json:"response,omitempty"`
}

// JSONFormatter writes one JSON document per call
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func toJSONResponse(resp *http.Response) *JSONResponse {
	if resp == nil {
		return nil
	}
	return &JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Headers,
		Body:       resp.Body,
		DurationMs: resp.DurationMs(),
		RequestID:  resp.RequestID,
	}
}

func (f *JSONFormatter) write(v any) {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(f.writer, `{"error": %q, "kind": "output"}`+"\n", err.Error())
	}
}

func (f *JSONFormatter) FormatResponse(resp *http.Response) {
	f.write(toJSONResponse(resp))
}

func (f *JSONFormatter) FormatValue(v any) {
	f.write(v)
}

func (f *JSONFormatter) FormatError(err error) {
	out := JSONError{Error: err.Error(), Kind: ErrorKind(err)}

	var clientErr *http.ClientError
	var parseErr *http.ParseError
	switch {
	case errors.As(err, &clientErr):
		out.Response = toJSONResponse(clientErr.Response)
	case errors.As(err, &parseErr):
		out.Response = toJSONResponse(parseErr.Response)
	}

	f.write(out)
}

// ErrorKind names the kind of a request error
func ErrorKind(err error) string {
	var (
		clientErr    *http.ClientError
		parseErr     *http.ParseError
		timeoutErr   *http.TimeoutError
		transportErr *http.TransportError
		configErr    *http.ConfigError
		schemaErr    *schema.ValidationError
	)
	switch {
	case errors.As(err, &clientErr):
		return "client"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &schemaErr):
		return "schema"
	default:
		return "unknown"
	}
}
