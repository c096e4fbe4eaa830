package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEcho(t *testing.T) string {
	t.Helper()
	srv := NewEchoServer()
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })
	return srv.URL()
}

func TestEcho(t *testing.T) {
	url := startEcho(t)

	req, err := http.NewRequest(http.MethodPut, url+"/echo?a=1&a=2", strings.NewReader(`{"some":"payload"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace", "abc")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var reply EchoReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.MethodPut, reply.Method)
	assert.Equal(t, "/echo", reply.Path)
	assert.Equal(t, []string{"1", "2"}, reply.Query["a"])
	assert.Equal(t, "abc", reply.Headers["X-Trace"])
	assert.Equal(t, map[string]any{"some": "payload"}, reply.Body)
}

func TestEcho_TextBody(t *testing.T) {
	url := startEcho(t)

	resp, err := http.Post(url+"/echo", "text/plain", strings.NewReader("plain words"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var reply EchoReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, "plain words", reply.Body)
}

func TestStatus(t *testing.T) {
	url := startEcho(t)

	tests := []struct {
		code     string
		expected int
	}{
		{code: "200", expected: 200},
		{code: "201", expected: 201},
		{code: "404", expected: 404},
		{code: "503", expected: 503},
		{code: "100", expected: 400},
		{code: "600", expected: 400},
		{code: "abc", expected: 400},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			resp, err := http.Get(url + "/status/" + tt.code)
			require.NoError(t, err)
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			assert.Equal(t, tt.expected, resp.StatusCode)
		})
	}
}

func TestRouter_Match(t *testing.T) {
	router := NewRouter()
	router.AddRoute(&Route{Method: http.MethodGet, PathPattern: "/a", PathRegex: createPathRegex("/a")})
	router.AddRoute(&Route{Method: "", PathPattern: "/b/{{id}}", PathRegex: createPathRegex("/b/{{id}}")})

	route, params := router.Match("get", "/a/")
	require.NotNil(t, route)
	assert.Empty(t, params)

	route, params = router.Match(http.MethodDelete, "/b/7")
	require.NotNil(t, route)
	assert.Equal(t, "7", params["id"])

	route, _ = router.Match(http.MethodGet, "/b/7/extra")
	assert.Nil(t, route)

	route, _ = router.Match(http.MethodPost, "/a")
	assert.Nil(t, route)
}

func TestCreatePathRegex_QuotesLiterals(t *testing.T) {
	re := createPathRegex("/v1.0/{{id}}")

	assert.True(t, re.MatchString("/v1.0/x"))
	assert.False(t, re.MatchString("/v1x0/x"))
}
