package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile saves a into dir without clobbering an existing file: a taken
// name gets a " (n)" suffix. The data is written to a temp file first and
// hard-linked to the first free name, so a file created concurrently under
// that name is never replaced. It returns the final path.
func WriteFile(dir string, a Artifact) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	name := a.Filename
	if name == "" {
		name = "export"
	}
	tmp, err := writeTemp(dir, name+".tmp-*", a.Data, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	defer func() { _ = os.Remove(tmp) }()

	ext := filepath.Ext(name)
	if strings.HasSuffix(name, ".slides.html") {
		ext = ".slides.html"
	}
	stem := strings.TrimSuffix(name, ext)
	for n := 1; n < 1000; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		p := filepath.Join(dir, candidate)
		err := os.Link(tmp, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %v", ErrExport, err)
		}
	}
	return "", fmt.Errorf("%w: no free file name for %s", ErrExport, name)
}

func writeTemp(dir, pattern string, b []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	_ = os.Chmod(tmp, perm)
	return tmp, nil
}
