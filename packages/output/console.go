package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/schema"
	"github.com/fatih/color"
)

// Formatter renders request outcomes.
type Formatter interface {
	FormatResponse(resp *http.Response)
	FormatValue(v any)
	FormatError(err error)
}

type ConsoleFormatter struct {
	writer  io.Writer
	include bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithInclude prints the status line and headers before the body
func WithInclude(include bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.include = include
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen, color.Bold)
	case code >= 300 && code < 400:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func (f *ConsoleFormatter) FormatResponse(resp *http.Response) {
	if f.include {
		f.formatHead(resp)
	}
	f.formatBody(resp)
}

func (f *ConsoleFormatter) formatHead(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	fmt.Fprintf(f.writer, "%s %s\n", statusColor(resp.StatusCode).Sprint(status), faint(fmt.Sprintf("(%dms)", resp.DurationMs())))

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(f.writer, "%s: %s\n", cyan(k), resp.Headers[k])
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) formatBody(resp *http.Response) {
	if len(resp.Raw) == 0 {
		return
	}
	if _, isText := resp.Body.(string); !isText {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Raw, "", "  "); err == nil {
			fmt.Fprintln(f.writer, buf.String())
			return
		}
	}
	fmt.Fprintln(f.writer, resp.BodyString())
}

// FormatValue prints a single extracted value
func (f *ConsoleFormatter) FormatValue(v any) {
	switch val := v.(type) {
	case string:
		fmt.Fprintln(f.writer, val)
	case map[string]any, []any:
		data, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			fmt.Fprintf(f.writer, "%v\n", val)
			return
		}
		fmt.Fprintln(f.writer, string(data))
	default:
		fmt.Fprintf(f.writer, "%v\n", val)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()

	var clientErr *http.ClientError
	if errors.As(err, &clientErr) && clientErr.Response != nil {
		f.formatHead(clientErr.Response)
		f.formatBody(clientErr.Response)
		return
	}

	var parseErr *http.ParseError
	if errors.As(err, &parseErr) && parseErr.Response != nil {
		fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
		fmt.Fprintln(f.writer, parseErr.Response.BodyString())
		return
	}

	var schemaErr *schema.ValidationError
	if errors.As(err, &schemaErr) {
		fmt.Fprintf(f.writer, "%s response does not match schema\n", red("Error:"))
		for _, msg := range schemaErr.Errors {
			fmt.Fprintf(f.writer, "  - %s\n", msg)
		}
		return
	}

	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
