package httpapi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	errOutsideIngestDir = errors.New("path outside the ingest directory")
	errNotRegularFile   = errors.New("not a regular file")
)

// resolveIngestPath aceita caminhos relativos ao diretório de ingestão ou
// absolutos dentro dele. Links simbólicos são resolvidos antes da checagem e
// FIFOs, diretórios e devices são recusados para não travar a requisição.
func resolveIngestPath(dir, p string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("ingest directory: %w", err)
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(abs, p)
	}
	p = filepath.Clean(p)

	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if !within(abs, p) && !within(root, p) {
			return "", errOutsideIngestDir
		}
		return "", err
	}
	if !within(root, resolved) {
		return "", errOutsideIngestDir
	}

	fi, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", errNotRegularFile
	}
	return resolved, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
