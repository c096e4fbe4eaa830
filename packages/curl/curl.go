// Package curl parses curl command lines into hitreq requests, so a request
// copied from browser dev tools or API docs can be replayed or rewritten as a
// hitreq command.
package curl

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Command is a parsed curl invocation
type Command struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is sent verbatim. Mutually exclusive with Form.
	Body string
	// Form holds urlencoded fields from -d and --data-urlencode
	Form http.Params
	// Params are query parameters, from data given with -G
	Params          http.Params
	User            string
	Insecure        bool
	FollowRedirects bool
}

// Flags that take a value. Anything else starting with "-" is a switch.
var valueFlags = map[string]string{
	"-X":               "request",
	"--request":        "request",
	"-H":               "header",
	"--header":         "header",
	"-d":               "data",
	"--data":           "data",
	"--data-raw":       "data",
	"--data-binary":    "data",
	"--data-ascii":     "data",
	"--data-urlencode": "urlencode",
	"--json":           "json",
	"-u":               "user",
	"--user":           "user",
	"-A":               "agent",
	"--user-agent":     "agent",
	"-e":               "referer",
	"--referer":        "referer",
	"-b":               "cookie",
	"--cookie":         "cookie",
	"--url":            "url",

	// Recognized so their values are not taken for the URL
	"-o":                "",
	"--output":          "",
	"-m":                "",
	"--max-time":        "",
	"--connect-timeout": "",
	"-w":                "",
	"--write-out":       "",
	"-x":                "",
	"--proxy":           "",
	"--retry":           "",
	"-c":                "",
	"--cookie-jar":      "",
	"-E":                "",
	"--cert":            "",
	"--cacert":          "",
	"--key":             "",
}

// Parse parses a curl command line. The leading "curl" is optional.
func Parse(cmdline string) (*Command, error) {
	tokens, err := tokenize(cmdline)
	if err != nil {
		return nil, err
	}
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	c := &Command{Headers: make(map[string]string)}
	var (
		method    string
		data      []string
		urlencode []string
		get       bool
		head      bool
	)

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		if !strings.HasPrefix(token, "-") || token == "-" {
			if c.URL == "" {
				c.URL = token
			}
			continue
		}

		name, value, inline := splitFlag(token)
		kind, takesValue := valueFlags[name]
		if !takesValue {
			switch name {
			case "-k", "--insecure":
				c.Insecure = true
			case "-L", "--location":
				c.FollowRedirects = true
			case "-G", "--get":
				get = true
			case "-I", "--head":
				head = true
			}
			continue
		}

		if !inline {
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", name)
			}
			i++
			value = tokens[i]
		}

		switch kind {
		case "request":
			method = strings.ToUpper(value)
		case "header":
			k, v, ok := strings.Cut(value, ":")
			if !ok {
				return nil, fmt.Errorf("invalid header %q", value)
			}
			c.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		case "data":
			data = append(data, value)
		case "urlencode":
			urlencode = append(urlencode, value)
		case "json":
			data = append(data, value)
			c.Headers["Content-Type"] = "application/json"
			c.Headers["Accept"] = "application/json"
		case "user":
			c.User = value
		case "agent":
			c.Headers["User-Agent"] = value
		case "referer":
			c.Headers["Referer"] = value
		case "cookie":
			c.Headers["Cookie"] = value
		case "url":
			c.URL = value
		}
	}

	if c.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}
	if !strings.Contains(c.URL, "://") && !strings.HasPrefix(c.URL, "{{") && !strings.HasPrefix(c.URL, "/") {
		c.URL = "http://" + c.URL
	}

	switch {
	case get:
		c.Params = fields(data, urlencode)
	case len(urlencode) > 0 || (len(data) > 0 && isForm(data, c.Headers)):
		c.Form = fields(data, urlencode)
	case len(data) > 0:
		c.Body = strings.Join(data, "&")
	}

	// curl picks the method from the options unless -X overrides it
	switch {
	case method != "":
		c.Method = method
	case head:
		c.Method = "HEAD"
	case !get && (c.Body != "" || len(c.Form) > 0):
		c.Method = "POST"
	default:
		c.Method = "GET"
	}

	return c, nil
}

// splitFlag splits "--flag=value" and "-Xvalue" forms
func splitFlag(token string) (name, value string, inline bool) {
	if strings.HasPrefix(token, "--") {
		if name, value, ok := strings.Cut(token, "="); ok {
			return name, value, true
		}
		return token, "", false
	}
	if len(token) > 2 {
		if _, ok := valueFlags[token[:2]]; ok {
			return token[:2], token[2:], true
		}
	}
	return token, "", false
}

// isForm reports whether -d data is sent urlencoded. curl does so unless the
// caller set another Content-Type; JSON-looking data and @files are kept
// verbatim so they are not mangled by re-encoding.
func isForm(data []string, headers map[string]string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Type") {
			return strings.HasPrefix(strings.ToLower(v), "application/x-www-form-urlencoded")
		}
	}
	for _, d := range data {
		trimmed := strings.TrimSpace(d)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "@") {
			return false
		}
	}
	return true
}

// fields splits urlencoded data into ordered pairs. --data-urlencode values
// are taken literally.
func fields(data, urlencode []string) http.Params {
	var params http.Params
	for _, d := range data {
		for _, pair := range strings.Split(d, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			params = params.Add(unescape(k), unescape(v))
		}
	}
	for _, d := range urlencode {
		k, v, ok := strings.Cut(d, "=")
		if !ok {
			// A bare value is sent without a name
			params = params.Add(d, "")
			continue
		}
		params = params.Add(k, v)
	}
	return params
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// Authorization returns the basic auth header value for -u, or "" without it
func (c *Command) Authorization() string {
	if c.User == "" {
		return ""
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User))
}

// HeaderLines returns the headers as sorted "Name: value" lines, including
// Authorization for -u unless a header already sets it.
func (c *Command) HeaderLines() []string {
	lines := make([]string, 0, len(c.Headers)+1)
	hasAuth := false
	for k, v := range c.Headers {
		if strings.EqualFold(k, "Authorization") {
			hasAuth = true
		}
		lines = append(lines, k+": "+v)
	}
	if auth := c.Authorization(); auth != "" && !hasAuth {
		lines = append(lines, "Authorization: "+auth)
	}
	sort.Strings(lines)
	return lines
}

// Args returns the equivalent hitreq command line, without the program name
func (c *Command) Args() ([]string, error) {
	switch c.Method {
	case "GET", "POST", "PUT", "DELETE":
	default:
		return nil, fmt.Errorf("method %s has no hitreq command (use hitreq curl)", c.Method)
	}

	args := []string{strings.ToLower(c.Method), c.URL}
	for _, p := range c.Params {
		args = append(args, "-p", p.Key+"="+p.Value)
	}
	for _, h := range c.HeaderLines() {
		args = append(args, "-H", h)
	}
	if c.Body != "" {
		args = append(args, "-d", c.Body)
	}
	for _, p := range c.Form {
		args = append(args, "-f", p.Key+"="+p.Value)
	}
	if c.Insecure {
		args = append(args, "-k")
	}
	if !c.FollowRedirects {
		args = append(args, "--no-follow")
	}
	return args, nil
}

// String renders Args as a shell command line
func (c *Command) String() string {
	args, err := c.Args()
	if err != nil {
		return ""
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quote(a)
	}
	return "hitreq " + strings.Join(quoted, " ")
}

func quote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@,+%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// tokenize splits a command line into words the way a POSIX shell would for
// quoting purposes. Backslash-newline continuations are joined.
func tokenize(cmd string) ([]string, error) {
	var (
		tokens       []string
		current      strings.Builder
		inWord       bool
		singleQuoted bool
		doubleQuoted bool
		escaped      bool
	)

	for _, r := range cmd {
		switch {
		case escaped:
			escaped = false
			if r == '\n' {
				continue
			}
			if doubleQuoted && !strings.ContainsRune(`"\$`+"`", r) {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			inWord = true
		case singleQuoted:
			if r == '\'' {
				singleQuoted = false
			} else {
				current.WriteRune(r)
			}
		case r == '\\':
			escaped = true
		case doubleQuoted:
			if r == '"' {
				doubleQuoted = false
			} else {
				current.WriteRune(r)
			}
		case r == '\'':
			singleQuoted = true
			inWord = true
		case r == '"':
			doubleQuoted = true
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				tokens = append(tokens, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if singleQuoted || doubleQuoted {
		return nil, fmt.Errorf("unterminated quote in curl command")
	}
	if inWord {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
