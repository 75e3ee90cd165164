package eia

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrUnsafePath is returned for archive entries that would be extracted
// outside the destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// ExtractDir is the directory an archive is unzipped into: its path
// without the extension.
func ExtractDir(archive string) string {
	return strings.TrimSuffix(archive, filepath.Ext(archive))
}

// Unzip extracts archive into ExtractDir(archive) and returns that directory.
func Unzip(archive string) (string, error) {
	dest := ExtractDir(archive)
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", archive, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	clean := filepath.Clean(dest)
	root := clean + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if target == clean {
			continue
		}
		if !strings.HasPrefix(target, root) {
			return "", fmt.Errorf("%s: %w", f.Name, ErrUnsafePath)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return "", fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return dest, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
