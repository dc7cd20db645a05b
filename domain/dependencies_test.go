package domain_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/openentry/entry-extension/"

// TestLayering verifies that each layer imports only the layers below it.
// Extensions link bindings and abi into their plugin artifact, so those
// packages must not pull in the host driver or the definition layer.
func TestLayering(t *testing.T) {
	tests := []struct {
		dir     string
		allowed []string
	}{
		{dir: "entities", allowed: nil},
		{dir: "errors", allowed: []string{"domain/"}},
		{dir: "../bindings", allowed: []string{"domain/"}},
		{dir: "../abi", allowed: []string{"domain/", "bindings"}},
		{dir: "../log", allowed: []string{"domain/"}},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.dir), func(t *testing.T) {
			files, err := filepath.Glob(filepath.Join(tt.dir, "*.go"))
			require.NoError(t, err)
			require.NotEmpty(t, files, "%s should contain Go files", tt.dir)

			fset := token.NewFileSet()
			for _, file := range files {
				if strings.HasSuffix(file, "_test.go") {
					continue
				}
				checkFileImports(t, fset, file, tt.allowed)
			}
		})
	}
}

func checkFileImports(t *testing.T, fset *token.FileSet, filename string, allowed []string) {
	t.Helper()

	f, err := parser.ParseFile(fset, filename, nil, parser.ImportsOnly)
	require.NoError(t, err, "failed to parse %s", filename)

	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		if !strings.HasPrefix(importPath, modulePath) {
			continue
		}

		rel := strings.TrimPrefix(importPath, modulePath)
		ok := false
		for _, prefix := range allowed {
			if strings.HasPrefix(rel, prefix) {
				ok = true
				break
			}
		}
		assert.True(t, ok, "%s imports %s", filename, importPath)
	}
}
