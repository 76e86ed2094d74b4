package upload

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Store writes multipart uploads below a single root directory and
// hands back paths relative to that root, the form they are stored in
// the database and served under /public.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "upload root")
	}
	return &Store{root: root}, nil
}

// Save stores the uploaded file under root/subdir with a unique name.
func (s *Store) Save(subdir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir")
	}

	name := uuid.NewString() + "-" + filepath.Base(fh.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", errors.Wrap(err, "write file")
	}

	return filepath.ToSlash(filepath.Join(subdir, name)), nil
}

// Remove deletes a stored file by its relative path. A missing file is
// not an error, removal is best effort on failure paths.
func (s *Store) Remove(relPath string) error {
	if relPath == "" || relPath == "-" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) Root() string { return s.root }
