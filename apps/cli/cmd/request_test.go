package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitreq/packages/mock"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(root, args)
	return code, stdout.String(), stderr.String()
}

func listen(t *testing.T, handler mock.Handler) string {
	t.Helper()
	srv, err := mock.Listen(handler)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv.URL()
}

func echoServer(t *testing.T) string {
	t.Helper()
	srv := mock.NewEchoServer()
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })
	return srv.URL()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRequest_GetString(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		return mock.Send(w, http.StatusOK, "ava-http")
	})

	code, stdout, _ := execute(t, "get", url, "--no-color")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "ava-http\n", stdout)
}

func TestRequest_GetObjectIsIndented(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		return mock.Send(w, http.StatusOK, map[string]string{"a": "b"})
	})

	code, stdout, _ := execute(t, "get", url, "--no-color")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "{\n  \"a\": \"b\"\n}\n", stdout)
}

func TestRequest_Include(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("X-Custom", "yes")
		return mock.Send(w, http.StatusOK, "ok")
	})

	code, stdout, _ := execute(t, "get", url, "-i", "--no-color")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "200 OK")
	assert.Contains(t, stdout, "X-Custom: yes")
	assert.Contains(t, stdout, "\nok\n")
}

func TestRequest_ErrorStatus(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		return mock.Send(w, http.StatusNotFound, map[string]string{"error": "missing"})
	})

	code, stdout, stderr := execute(t, "get", url, "--no-color")

	assert.Equal(t, ExitStatusError, code)
	assert.Contains(t, stdout, "404 Not Found")
	assert.Contains(t, stdout, `"error": "missing"`)
	assert.Empty(t, stderr)
}

func TestRequest_PostDataParamsAndHeaders(t *testing.T) {
	url := echoServer(t)

	code, stdout, _ := execute(t, "post", url+"/echo",
		"-d", `{"some":"payload"}`,
		"-p", "z=1", "-p", "a=2",
		"-H", "X-Trace: abc",
		"-o", "json",
	)
	require.Equal(t, ExitSuccess, code)

	var out output.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	reply, ok := out.Body.(map[string]any)
	require.True(t, ok, "expected object body, got %T", out.Body)
	assert.Equal(t, "POST", reply["method"])
	assert.Equal(t, map[string]any{"some": "payload"}, reply["body"])
	headers := reply["headers"].(map[string]any)
	assert.Equal(t, "abc", headers["X-Trace"])
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestRequest_DataFromFile(t *testing.T) {
	url := echoServer(t)
	path := writeFile(t, "body.json", `{"from":"file"}`)

	code, stdout, _ := execute(t, "put", url+"/echo", "-d", "@"+path, "-q", "body.body.from")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "file\n", stdout)
}

func TestRequest_Form(t *testing.T) {
	var form string
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		if err := r.ParseForm(); err != nil {
			return err
		}
		form = r.PostForm.Encode()
		return mock.Send(w, http.StatusOK, nil)
	})

	code, _, _ := execute(t, "post", url, "-f", "some=payload", "-f", "n=a b")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "n=a+b&some=payload", form)
}

func TestRequest_DataAndFormConflict(t *testing.T) {
	url := echoServer(t)

	code, stdout, _ := execute(t, "post", url+"/echo", "-d", `{}`, "-f", "a=b", "--no-color")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stdout, "mutually exclusive")
}

func TestRequest_DeleteAlias(t *testing.T) {
	url := echoServer(t)

	code, stdout, _ := execute(t, "del", url+"/echo", "-q", "body.method")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "DELETE\n", stdout)
}

func TestRequest_QueryStatus(t *testing.T) {
	url := echoServer(t)

	code, stdout, _ := execute(t, "get", url+"/status/201", "-q", "status")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "201\n", stdout)
}

func TestRequest_QueryMissingValue(t *testing.T) {
	url := echoServer(t)

	code, _, _ := execute(t, "get", url+"/echo", "-q", "body.nope", "--no-color")

	assert.Equal(t, ExitParseError, code)
}

func TestRequest_Raw(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json")
		return mock.Send(w, http.StatusOK, `{ "bad json" }`)
	})

	code, _, _ := execute(t, "get", url, "--no-color")
	assert.Equal(t, ExitParseError, code)

	code, stdout, _ := execute(t, "get", url, "--raw", "--no-color")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "{ \"bad json\" }\n", stdout)
}

func TestRequest_Schema(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		return mock.Send(w, http.StatusOK, map[string]any{"id": 1})
	})

	valid := writeFile(t, "valid.json", `{"type":"object","required":["id"]}`)
	code, _, _ := execute(t, "get", url, "--schema", valid, "--no-color")
	assert.Equal(t, ExitSuccess, code)

	invalid := writeFile(t, "invalid.json", `{"type":"object","required":["name"]}`)
	code, stdout, _ := execute(t, "get", url, "--schema", invalid, "--no-color")
	assert.Equal(t, ExitParseError, code)
	assert.Contains(t, stdout, "name")

	code, _, _ = execute(t, "get", url, "--schema", filepath.Join(t.TempDir(), "missing.json"), "--no-color")
	assert.Equal(t, ExitConfigError, code)
}

func TestRequest_Variables(t *testing.T) {
	url := echoServer(t)
	envFile := writeFile(t, ".env", "TOKEN=from-file\nPATH_PART=echo\n")

	code, stdout, _ := execute(t, "get", url+"/{{PATH_PART}}",
		"--env-file", envFile,
		"--var", "TOKEN=from-flag",
		"-p", "token={{TOKEN}}",
		"-q", "body.query.token.0",
	)

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "from-flag\n", stdout)
}

func TestRequest_BaseURL(t *testing.T) {
	url := echoServer(t)

	code, stdout, _ := execute(t, "get", "echo", "--base-url", url+"/", "-q", "body.path")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "/echo\n", stdout)
}

func TestRequest_ConfigFile(t *testing.T) {
	url := echoServer(t)
	cfg := writeFile(t, "hitreq.yaml", "headers:\n  X-From-Config: \"1\"\nrequestID: true\n")

	code, stdout, _ := execute(t, "get", url+"/echo", "--config", cfg, "-o", "json")
	require.Equal(t, ExitSuccess, code)

	var out output.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	headers := out.Body.(map[string]any)["headers"].(map[string]any)
	assert.Equal(t, "1", headers["X-From-Config"])
	assert.NotEmpty(t, headers["X-Request-Id"])
	assert.Equal(t, headers["X-Request-Id"], out.RequestID)
}

func TestRequest_ConfigErrors(t *testing.T) {
	url := echoServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad timeout", args: []string{"get", url, "--timeout", "soon"}},
		{name: "missing config", args: []string{"get", url, "--config", filepath.Join(t.TempDir(), "nope.yaml")}},
		{name: "bad output", args: []string{"get", url, "-o", "xml"}},
		{name: "missing env file", args: []string{"get", url, "--env-file", filepath.Join(t.TempDir(), ".env")}},
		{name: "unsupported scheme", args: []string{"get", "ftp://example.com", "--no-color"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := execute(t, tt.args...)
			assert.Equal(t, ExitConfigError, code)
		})
	}
}

func TestRequest_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no url", args: []string{"get"}},
		{name: "two urls", args: []string{"get", "http://a", "http://b"}},
		{name: "unknown flag", args: []string{"get", "http://a", "--bogus"}},
		{name: "bad param", args: []string{"get", "http://a", "-p", "novalue"}},
		{name: "bad header", args: []string{"get", "http://a", "-H", "NoColon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, ExitUsageError, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestRequest_NetworkError(t *testing.T) {
	srv, err := mock.Listen(nil)
	require.NoError(t, err)
	url := srv.URL()
	require.NoError(t, srv.Close())

	code, stdout, _ := execute(t, "get", url, "--no-color")

	assert.Equal(t, ExitNetworkError, code)
	assert.Contains(t, stdout, "Error:")
}

func TestRequest_Expect(t *testing.T) {
	url := echoServer(t)

	code, _, stderr := execute(t, "post", url+"/echo", "-d", `{"items":[1,2,3]}`,
		"-e", "status == 200",
		"-e", "body.body.items length 3",
		"-e", "body.method == POST",
		"--no-color",
	)
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stderr)

	code, _, stderr = execute(t, "get", url+"/echo", "-e", "body.method == POST", "--no-color")
	assert.Equal(t, ExitStatusError, code)
	assert.Contains(t, stderr, "Expectation failed: body.method == POST (expected POST, got GET)")
}

func TestRequest_ExpectDecidesErrorStatus(t *testing.T) {
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		return mock.Send(w, http.StatusNotFound, map[string]string{"error": "missing"})
	})

	code, stdout, _ := execute(t, "get", url, "-e", "status == 404", "-e", "body.error exists", "--no-color")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, `"error": "missing"`)

	code, _, stderr := execute(t, "get", url, "-e", "status == 200", "--no-color")
	assert.Equal(t, ExitStatusError, code)
	assert.Contains(t, stderr, "Expectation failed: status == 200")
}

func TestRequest_ExpectInvalid(t *testing.T) {
	code, _, stderr := execute(t, "get", "http://localhost", "-e", "cookie.id exists")

	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, stderr, "Error:")
}
