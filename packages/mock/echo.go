package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// EchoReply is the JSON document returned by Echo.
type EchoReply struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query,omitempty"`
	Headers map[string]string   `json:"headers,omitempty"`
	Body    any                 `json:"body,omitempty"`
}

// Echo replies 200 with a description of the request it received. JSON
// request bodies are echoed as JSON, anything else as text.
func Echo(w http.ResponseWriter, r *http.Request) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return NewHTTPErrorf(http.StatusBadRequest, "read body: %v", err)
	}

	reply := EchoReply{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Headers: make(map[string]string, len(r.Header)),
	}
	for k := range r.Header {
		reply.Headers[k] = r.Header.Get(k)
	}

	if len(data) > 0 {
		var v any
		if json.Unmarshal(data, &v) == nil {
			reply.Body = v
		} else {
			reply.Body = string(data)
		}
	}

	return Send(w, http.StatusOK, reply)
}

// Status replies with the status named by the {{code}} path parameter.
func Status(w http.ResponseWriter, r *http.Request) error {
	code, err := strconv.Atoi(Param(r, "code"))
	if err != nil || code < 200 || code > 599 {
		return NewHTTPErrorf(http.StatusBadRequest, "invalid status code %q", Param(r, "code"))
	}
	return Send(w, code, map[string]any{"status": code, "text": http.StatusText(code)})
}

// NewEchoServer builds a server with /echo and /status/{{code}} routes.
func NewEchoServer(opts ...Option) *Server {
	s := NewServer(nil, opts...)
	s.Handle("", "/echo", Echo)
	s.Handle("", "/status/{{code}}", Status)
	return s
}
