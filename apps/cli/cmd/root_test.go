package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: ExitSuccess},
		{name: "client", err: &http.ClientError{StatusCode: 500}, expected: ExitStatusError},
		{name: "parse", err: &http.ParseError{Err: errors.New("bad")}, expected: ExitParseError},
		{name: "schema", err: &schema.ValidationError{}, expected: ExitParseError},
		{name: "config", err: &http.ConfigError{Err: http.ErrEmptyURL}, expected: ExitConfigError},
		{name: "timeout", err: &http.TimeoutError{Err: context.DeadlineExceeded}, expected: ExitNetworkError},
		{name: "transport", err: &http.TransportError{Err: errors.New("refused")}, expected: ExitNetworkError},
		{name: "wrapped", err: fmt.Errorf("call: %w", &http.ClientError{StatusCode: 404}), expected: ExitStatusError},
		{name: "explicit", err: usageError(errors.New("bad flag")), expected: ExitUsageError},
		{name: "other", err: errors.New("other"), expected: ExitStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeFor(tt.err))
		})
	}
}

func TestConfigErrorKeepsExistingCode(t *testing.T) {
	err := configError(usageError(errors.New("bad flag")))
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	err = configError(errors.New("bad file"))
	assert.Equal(t, ExitConfigError, exitCodeFor(err))
}

func TestReported(t *testing.T) {
	err := reported(&http.ClientError{StatusCode: 503})

	assert.True(t, isReported(err))
	assert.Equal(t, ExitStatusError, exitCodeFor(err))
	assert.False(t, isReported(errors.New("plain")))
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "hitreq version dev")
	assert.Contains(t, stdout, "Built: unknown")
}

func TestCompletion(t *testing.T) {
	code, stdout, _ := execute(t, "completion", "bash")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "hitreq")

	code, _, _ = execute(t, "completion", "tcsh")
	assert.Equal(t, ExitUsageError, code)
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := execute(t, "fetch", "http://example.com")

	assert.NotEqual(t, ExitSuccess, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hitreq.yaml")
	root := newRootCmd()

	require.NoError(t, initConfig(root, path, false))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, "hitreq/dev", cfg.Headers["User-Agent"])

	err = initConfig(root, path, false)
	assert.Equal(t, ExitConfigError, exitCodeFor(err))

	assert.NoError(t, initConfig(root, path, true))
}

func TestValidate(t *testing.T) {
	schemaFile := writeFile(t, "user.schema.json", `{"type":"object","required":["id"]}`)
	good := writeFile(t, "good.json", `{"id":1}`)
	bad := writeFile(t, "bad.json", `{"name":"ada"}`)

	code, stdout, _ := execute(t, "validate", schemaFile, good)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Valid: "+good)

	code, _, stderr := execute(t, "validate", schemaFile, good, bad)
	assert.Equal(t, ExitParseError, code)
	assert.Contains(t, stderr, "Invalid: "+bad)
	assert.Contains(t, stderr, "id")

	code, _, _ = execute(t, "validate", schemaFile, filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, ExitConfigError, code)

	code, _, _ = execute(t, "validate", schemaFile)
	assert.Equal(t, ExitUsageError, code)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("HITREQ_TEST_STRING", "value")
	t.Setenv("HITREQ_TEST_BOOL", "yes")
	t.Setenv("HITREQ_TEST_INT", "42")
	t.Setenv("HITREQ_TEST_BAD_INT", "many")

	assert.Equal(t, "value", getEnvString("HITREQ_TEST_STRING", "default"))
	assert.Equal(t, "default", getEnvString("HITREQ_TEST_UNSET", "default"))
	assert.True(t, getEnvBool("HITREQ_TEST_BOOL", false))
	assert.True(t, getEnvBool("HITREQ_TEST_UNSET", true))
	assert.Equal(t, 42, getEnvInt("HITREQ_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("HITREQ_TEST_BAD_INT", 1))
	assert.Equal(t, 1, getEnvInt("HITREQ_TEST_UNSET", 1))
}
