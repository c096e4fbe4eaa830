package capture

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/tidwall/gjson"
)

// Source is the part of a response an expression reads from.
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Expr is a parsed capture expression.
type Expr struct {
	Source Source
	Path   string
}

// Parse reads expressions of the form status, duration, header.<Name>,
// body or body.<path>.
func Parse(expr string) (Expr, error) {
	expr = strings.TrimSpace(expr)
	head, rest, hasRest := strings.Cut(expr, ".")

	switch head {
	case "status":
		if hasRest {
			return Expr{}, fmt.Errorf("capture %q: status takes no path", expr)
		}
		return Expr{Source: SourceStatus}, nil
	case "duration":
		if hasRest {
			return Expr{}, fmt.Errorf("capture %q: duration takes no path", expr)
		}
		return Expr{Source: SourceDuration}, nil
	case "header":
		if rest == "" {
			return Expr{}, fmt.Errorf("capture %q: header name required", expr)
		}
		return Expr{Source: SourceHeader, Path: rest}, nil
	case "body":
		return Expr{Source: SourceBody, Path: rest}, nil
	default:
		return Expr{}, fmt.Errorf("capture %q: unknown source %q", expr, head)
	}
}

type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if gjson.ValidBytes(resp.Raw) {
		e.bodyJSON = gjson.ParseBytes(resp.Raw)
	}
	return e
}

func (e *Extractor) Extract(expr Expr) (any, bool) {
	switch expr.Source {
	case SourceBody:
		return e.extractFromBody(expr.Path)
	case SourceHeader:
		return e.extractFromHeader(expr.Path)
	case SourceStatus:
		return e.response.StatusCode, true
	case SourceDuration:
		return e.response.DurationMs(), true
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		if path == "" {
			return e.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// Extract parses expr and evaluates it against resp.
func Extract(resp *http.Response, expr string) (any, error) {
	parsed, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	value, ok := NewExtractor(resp).Extract(parsed)
	if !ok {
		return nil, fmt.Errorf("capture %q: no value", expr)
	}
	return value, nil
}

// ExtractAll evaluates named expressions, skipping those without a value.
func ExtractAll(resp *http.Response, exprs map[string]Expr) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for name, expr := range exprs {
		if value, ok := extractor.Extract(expr); ok {
			results[name] = value
		}
	}

	return results
}
