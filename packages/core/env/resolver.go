package env

import (
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/builtin"
	"github.com/abdul-hamid-achik/hitreq/packages/log"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{...}} placeholders. It is read-only after construction
// and safe for concurrent use.
type Resolver struct {
	variables map[string]string
	funcs     *builtin.Registry
}

// NewResolver merges sources left to right; later sources win.
func NewResolver(sources ...map[string]string) *Resolver {
	vars := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			vars[k] = v
		}
	}
	return &Resolver{variables: vars, funcs: builtin.NewRegistry()}
}

// Resolve expands every placeholder it can and returns the names it could
// not, leaving those placeholders untouched.
func (r *Resolver) Resolve(input string) (string, []string) {
	var unresolved []string
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if name, ok := strings.CutPrefix(expr, "$"); ok {
			if val, set := os.LookupEnv(name); set {
				return val
			}
			unresolved = append(unresolved, expr)
			return match
		}

		if strings.HasSuffix(expr, ")") {
			val, found, err := r.funcs.Call(expr)
			if found && err == nil {
				return val
			}
			if err != nil {
				log.Warn().Err(err).Msg("builtin function failed")
			}
			unresolved = append(unresolved, expr)
			return match
		}

		if val, ok := r.variables[expr]; ok {
			return val
		}
		unresolved = append(unresolved, expr)
		return match
	})
	return out, unresolved
}

// ResolveAll resolves every value of values into a new map.
func (r *Resolver) ResolveAll(values map[string]string) (map[string]string, []string) {
	var unresolved []string
	result := make(map[string]string, len(values))
	for k, v := range values {
		resolved, missing := r.Resolve(v)
		result[k] = resolved
		unresolved = append(unresolved, missing...)
	}
	return result, unresolved
}
