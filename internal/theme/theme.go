// Package theme loads overlay theme files and substitutes their
// ${{NAME}} tokens.
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// tokenPattern matches substitution tokens of the form ${{NAME}}.
var tokenPattern = regexp.MustCompile(`\$\{\{([A-Za-z0-9_]+)\}\}`)

// Context maps variable names (case-sensitive) to substitution values.
type Context map[string]string

// UnresolvedVariableError reports template tokens with no mapping in the
// render context, in order of first appearance.
type UnresolvedVariableError struct {
	Names []string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("theme: unresolved template variable(s): %s", strings.Join(e.Names, ", "))
}

// Render replaces every ${{NAME}} token in tmpl with its value from ctx.
// If any referenced variable is unmapped, Render returns an
// *UnresolvedVariableError naming all of them and no output. Pure and
// deterministic: the same inputs always produce the same result.
func Render(tmpl string, ctx Context) (string, error) {
	var missing []string
	seen := make(map[string]bool)

	out := tokenPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		name := tokenPattern.FindStringSubmatch(tok)[1]
		val, ok := ctx[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return tok
		}
		return val
	})

	if len(missing) > 0 {
		return "", &UnresolvedVariableError{Names: missing}
	}
	return out, nil
}

// Find resolves a theme path. Absolute paths are used as-is; relative
// paths are tried against the working directory, then the executable's
// directory.
func Find(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("theme: %w", err)
		}
		return path, nil
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	exe, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(exe), path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("theme: %q not found in the working directory or next to the executable", path)
}

// Load locates and reads a theme file.
func Load(path string) (string, error) {
	resolved, err := Find(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("theme: read %s: %w", resolved, err)
	}
	return string(data), nil
}
