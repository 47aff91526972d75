// AngelaMos | 2026
// local.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type Local struct {
	dir        string
	publicPath string
}

func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Local{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

// Save writes to a temp file first so readers never observe a partial
// upload under the final name.
func (l *Local) Save(
	_ context.Context,
	name string,
	r io.Reader,
	_ int64,
	_ string,
) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()        //nolint:errcheck // cleanup after failed write
		_ = os.Remove(tmpName) //nolint:errcheck // cleanup after failed write
		return fmt.Errorf("write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // cleanup after failed close
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // cleanup after failed rename
		return fmt.Errorf("move file into place: %w", err)
	}

	return nil
}

func (l *Local) Delete(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}

	return nil
}

func (l *Local) URL(name string) string {
	return l.publicPath + "/" + name
}

func (l *Local) PublicPath() string {
	return l.publicPath
}

// Handler serves stored files; mount it under PublicPath. Responses are
// sandboxed so an uploaded document can never run script on this origin.
func (l *Local) Handler() http.Handler {
	files := http.StripPrefix(l.publicPath, http.FileServer(http.Dir(l.dir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
		h.Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
