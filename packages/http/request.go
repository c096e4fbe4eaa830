package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeText = "text/plain"
)

// Param is a single query or form key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of key/value pairs. Order is preserved when encoded.
type Params []Param

// P builds Params from alternating keys and values. A trailing key without
// a value is given an empty value.
func P(kv ...string) Params {
	params := make(Params, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Param{Key: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		params = append(params, p)
	}
	return params
}

// Add appends a pair and returns the extended list.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Encode renders the pairs in urlencoded form, keeping insertion order.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// AuthType selects how Auth is rendered into the Authorization header.
type AuthType int

const (
	AuthBasic AuthType = iota
	AuthBearer
)

// Auth holds request credentials.
type Auth struct {
	Type     AuthType
	Username string
	Password string
	Token    string
}

// BasicAuth returns Auth for HTTP basic authentication.
func BasicAuth(username, password string) *Auth {
	return &Auth{Type: AuthBasic, Username: username, Password: password}
}

// BearerAuth returns Auth for a bearer token.
func BearerAuth(token string) *Auth {
	return &Auth{Type: AuthBearer, Token: token}
}

func (a *Auth) header() string {
	switch a.Type {
	case AuthBearer:
		return "Bearer " + a.Token
	default:
		creds := a.Username + ":" + a.Password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
	}
}

// Config holds the options of a single request. A nil *Config means defaults.
type Config struct {
	// Params are appended to the URL query string in order.
	Params Params
	// Body is sent as JSON. Strings, byte slices and json.RawMessage are
	// taken to already be JSON text and sent verbatim.
	Body any
	// Form is sent urlencoded. Mutually exclusive with Body.
	Form Params
	// JSON controls response decoding. Defaults to true.
	JSON *bool
	// Headers are applied last and override defaults, including Content-Type.
	Headers map[string]string
	// Timeout bounds the whole request. Zero uses the client timeout.
	Timeout time.Duration
	// Auth sets the Authorization header.
	Auth *Auth
}

// Bool returns a pointer to b, for Config.JSON.
func Bool(b bool) *bool {
	return &b
}

// DecodeJSON reports whether responses should be JSON-decoded.
func (c *Config) DecodeJSON() bool {
	if c == nil || c.JSON == nil {
		return true
	}
	return *c.JSON
}

// BodyKind identifies how a request body is encoded.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyForm
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyForm:
		return "form"
	default:
		return "none"
	}
}

// BodyKind resolves which body encoding the config selects.
func (c *Config) BodyKind() (BodyKind, error) {
	if c == nil {
		return BodyNone, nil
	}
	hasBody := c.Body != nil
	hasForm := c.Form != nil
	switch {
	case hasBody && hasForm:
		return BodyNone, ErrConflictingBody
	case hasBody:
		return BodyJSON, nil
	case hasForm:
		return BodyForm, nil
	default:
		return BodyNone, nil
	}
}

// encodeBody returns the request body reader and its content type.
func (c *Config) encodeBody() (io.Reader, string, error) {
	kind, err := c.BodyKind()
	if err != nil {
		return nil, "", err
	}

	switch kind {
	case BodyJSON:
		data, err := marshalBody(c.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return bytes.NewReader(data), ContentTypeJSON, nil
	case BodyForm:
		return strings.NewReader(c.Form.Encode()), ContentTypeForm, nil
	default:
		return nil, "", nil
	}
}

func marshalBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

// BuildURL appends params to rawURL, after any query it already carries.
func BuildURL(rawURL string, params Params) (string, error) {
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	if len(params) == 0 {
		return u.String(), nil
	}

	if u.RawQuery == "" {
		u.RawQuery = params.Encode()
	} else {
		u.RawQuery = u.RawQuery + "&" + params.Encode()
	}
	return u.String(), nil
}
