package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Send writes status and body. A nil body sends the status alone, strings
// are sent as text/plain, byte slices as application/octet-stream, and any
// other value is encoded as JSON.
func Send(w http.ResponseWriter, status int, body any) error {
	var (
		data        []byte
		contentType string
	)

	switch v := body.(type) {
	case nil:
		w.WriteHeader(status)
		return nil
	case string:
		data = []byte(v)
		contentType = "text/plain; charset=utf-8"
	case []byte:
		data = v
		contentType = "application/octet-stream"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode response body: %w", err)
		}
		data = encoded
		contentType = "application/json; charset=utf-8"
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, err := w.Write(data)
	return err
}

// ReadJSON decodes the request body into v. Malformed JSON yields a 400
// *HTTPError, so handlers can return the error unchanged.
func ReadJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return NewHTTPErrorf(http.StatusBadRequest, "read body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewHTTPErrorf(http.StatusBadRequest, "invalid JSON body: %v", err)
	}
	return nil
}
