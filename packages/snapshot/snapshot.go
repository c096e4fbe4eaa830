// Package snapshot compares responses against values recorded by an earlier
// run. Snapshots of many requests share one JSON file, keyed by name.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Store is a snapshot file. It is safe for concurrent use.
type Store struct {
	path   string
	update bool

	mu        sync.Mutex
	snapshots map[string]any
}

// Open returns the store backed by path. The file is read on first use and
// need not exist. In update mode missing and mismatched snapshots are written
// instead of failing.
func Open(path string, update bool) *Store {
	return &Store{
		path:   path,
		update: update,
	}
}

// Result represents the result of a snapshot comparison.
type Result struct {
	Name       string
	Passed     bool
	Message    string
	Expected   any
	Actual     any
	Diffs      []string
	IsNew      bool
	WasUpdated bool
}

// Name returns the default snapshot name for a request: the method and the
// URL path with its query.
func Name(method, rawURL string) string {
	target := rawURL
	if _, rest, ok := strings.Cut(rawURL, "://"); ok {
		target = "/"
		if i := strings.IndexAny(rest, "/?"); i >= 0 {
			target = rest[i:]
		}
	}
	return strings.ToUpper(method) + " " + target
}

// Value returns the part of resp that is recorded: its status and body
func Value(resp *http.Response) any {
	return map[string]any{
		"status": resp.StatusCode,
		"body":   resp.Body,
	}
}

// Compare compares actual against the snapshot called name. Errors are
// returned only for unreadable or unwritable snapshot files.
func (s *Store) Compare(name string, actual any) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	actual = normalize(actual)
	result := &Result{Name: name, Actual: actual}

	expected, exists := s.snapshots[name]
	if !exists {
		if !s.update {
			result.Message = "snapshot does not exist (run with --update-snapshot to create)"
			return result, nil
		}
		s.snapshots[name] = actual
		if err := s.save(); err != nil {
			return nil, err
		}
		result.Passed = true
		result.IsNew = true
		result.Expected = actual
		result.Message = "new snapshot created"
		return result, nil
	}

	result.Expected = expected
	if reflect.DeepEqual(expected, actual) {
		result.Passed = true
		return result, nil
	}

	if s.update {
		s.snapshots[name] = actual
		if err := s.save(); err != nil {
			return nil, err
		}
		result.Passed = true
		result.WasUpdated = true
		result.Message = "snapshot updated"
		return result, nil
	}

	result.Diffs = Diff(expected, actual)
	result.Message = "snapshot mismatch"
	return result, nil
}

func (s *Store) load() error {
	if s.snapshots != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.snapshots = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshots: %w", err)
	}

	snapshots := make(map[string]any)
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return fmt.Errorf("parse snapshots %s: %w", s.path, err)
	}
	// A file holding JSON null decodes to a nil map.
	if snapshots == nil {
		snapshots = make(map[string]any)
	}
	s.snapshots = snapshots
	return nil
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.snapshots, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0644)
}

// normalize round-trips v through JSON so numbers and maps compare the way
// they were stored.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// Diff lists the paths where actual differs from expected, in sorted order
func Diff(expected, actual any) []string {
	var diffs []string
	diff("", normalize(expected), normalize(actual), &diffs)
	sort.Strings(diffs)
	return diffs
}

func diff(path string, expected, actual any, out *[]string) {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			break
		}
		for k, ev := range e {
			av, found := a[k]
			if !found {
				*out = append(*out, fmt.Sprintf("%s: missing", join(path, k)))
				continue
			}
			diff(join(path, k), ev, av, out)
		}
		for k := range a {
			if _, found := e[k]; !found {
				*out = append(*out, fmt.Sprintf("%s: unexpected", join(path, k)))
			}
		}
		return
	case []any:
		a, ok := actual.([]any)
		if !ok {
			break
		}
		if len(e) != len(a) {
			*out = append(*out, fmt.Sprintf("%s: expected %d items, got %d", orRoot(path), len(e), len(a)))
			return
		}
		for i := range e {
			diff(join(path, fmt.Sprint(i)), e[i], a[i], out)
		}
		return
	}

	if !reflect.DeepEqual(expected, actual) {
		*out = append(*out, fmt.Sprintf("%s: expected %s, got %s", orRoot(path), render(expected), render(actual)))
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func orRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func render(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
