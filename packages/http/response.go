package http

import (
	"bytes"
	"encoding/json"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is the envelope produced for every completed request.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	// Body is the decoded body: a JSON value when JSON decoding applied,
	// the raw text otherwise. JSON numbers are float64, except integers
	// beyond 2^53 which are kept as json.Number.
	Body      any
	Raw       []byte
	Duration  time.Duration
	RequestID string
}

func (r *Response) BodyString() string {
	return string(r.Raw)
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Raw, v)
}

// Get runs a gjson path query against the raw body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return isJSONMediaType(r.ContentType())
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

func isJSONMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt == ContentTypeJSON || strings.HasSuffix(mt, "+json")
}

// looksLikeJSON reports whether a body without a JSON content type should
// still be decoded as JSON.
func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

// decodeBody fills r.Body. It returns the decode error, if any; callers decide
// whether that error matters for the response's status.
func (r *Response) decodeBody(decodeJSON bool) error {
	r.Body = string(r.Raw)
	if !decodeJSON || len(r.Raw) == 0 {
		return nil
	}
	if !r.IsJSON() && !looksLikeJSON(r.Raw) {
		return nil
	}

	// Unmarshal reports syntax errors, including trailing data, as
	// *json.SyntaxError.
	if err := json.Unmarshal(r.Raw, new(json.RawMessage)); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(r.Raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	r.Body = numbers(v)
	return nil
}

// maxExactInt is the largest integer magnitude a float64 holds exactly.
const maxExactInt = 1 << 53

// numbers turns decoded json.Number values into float64, except integers
// too large for a float64 which stay json.Number so no digits are lost.
func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			if i > maxExactInt || i < -maxExactInt {
				return t
			}
			return float64(i)
		}
		if !strings.ContainsAny(t.String(), ".eE") {
			return t
		}
		f, err := t.Float64()
		if err != nil {
			return t
		}
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = numbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = numbers(e)
		}
		return t
	}
	return v
}
