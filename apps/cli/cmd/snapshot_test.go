package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/abdul-hamid-achik/hitreq/packages/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Snapshot(t *testing.T) {
	var version atomic.Int64
	version.Store(1)
	url := listen(t, func(w http.ResponseWriter, r *http.Request) error {
		return mock.Send(w, http.StatusOK, map[string]any{"id": 7, "version": version.Load()})
	})
	snap := filepath.Join(t.TempDir(), "api.snap.json")

	// Missing snapshot fails until it is written
	code, _, stderr := execute(t, "get", url+"/users/7", "--snapshot", snap)
	assert.Equal(t, ExitStatusError, code)
	assert.Contains(t, stderr, "snapshot does not exist")

	code, _, stderr = execute(t, "get", url+"/users/7", "--snapshot", snap, "--update-snapshot")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, `Snapshot "GET /users/7": new snapshot created`)
	data, err := os.ReadFile(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"GET /users/7"`)

	code, _, stderr = execute(t, "get", url+"/users/7", "--snapshot", snap)
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stderr)

	version.Store(2)
	code, _, stderr = execute(t, "get", url+"/users/7", "--snapshot", snap)
	assert.Equal(t, ExitStatusError, code)
	assert.Contains(t, stderr, "snapshot mismatch")
	assert.Contains(t, stderr, "  - body.version: expected 1, got 2")
}

func TestRequest_SnapshotNameAndParams(t *testing.T) {
	url := echoServer(t)
	snap := filepath.Join(t.TempDir(), "api.snap.json")

	code, _, stderr := execute(t, "get", url+"/echo", "-p", "page=2", "--snapshot", snap, "--update-snapshot")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, `"GET /echo?page=2"`)

	code, _, stderr = execute(t, "get", url+"/echo", "--snapshot", snap, "--snapshot-name", "echo", "--update-snapshot")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, `Snapshot "echo"`)
}

func TestRequest_SnapshotRecordsErrorStatus(t *testing.T) {
	url := echoServer(t)
	snap := filepath.Join(t.TempDir(), "api.snap.json")

	code, _, _ := execute(t, "get", url+"/status/404", "--snapshot", snap, "--update-snapshot")
	assert.Equal(t, ExitSuccess, code)

	code, _, _ = execute(t, "get", url+"/status/404", "--snapshot", snap)
	assert.Equal(t, ExitSuccess, code)
}

func TestRequest_SnapshotCorruptFile(t *testing.T) {
	url := echoServer(t)
	snap := writeFile(t, "api.snap.json", "{oops")

	code, _, _ := execute(t, "get", url+"/echo", "--snapshot", snap)

	assert.Equal(t, ExitConfigError, code)
}
