package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// KindFile serves datasets from a local directory.
const KindFile = "file"

// FileStore reads datasets from a file system, usually a local directory.
type FileStore struct {
	fsys     fs.FS
	location string
}

// NewFileStore creates a store over dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	return &FileStore{fsys: os.DirFS(dir), location: dir}, nil
}

// NewFSStore creates a store over any fs.FS (embedded data, fstest.MapFS).
func NewFSStore(fsys fs.FS, location string) *FileStore {
	return &FileStore{fsys: fsys, location: location}
}

func newFileFromOptions(_ context.Context, opts Options) (Store, error) {
	return NewFileStore(opts.Dir)
}

// Info implements Store.
func (s *FileStore) Info() StoreInfo {
	return StoreInfo{Kind: KindFile, Location: s.location, Description: "local directory"}
}

// Open implements Store.
func (s *FileStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Name: name, Err: err}
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, &NotFoundError{Name: name, Err: fmt.Errorf("is a directory")}
	}
	return f, nil
}

// Ping checks that the root is readable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fs.Stat(s.fsys, "."); err != nil {
		return fmt.Errorf("file store ping: %w", err)
	}
	return nil
}
