package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ErrTypeFS is the error type of failed filesystem operations.
const ErrTypeFS = "fs_error"

// MkdirAll creates a directory and its parents. It does nothing when the
// directory already exists.
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("creating directory failed").
			WithType(ErrTypeFS).
			WithTag("dir", dir).
			Wrap(err)
	}
	return nil
}

// CopyFile copies src into dst. The content is copied byte for byte and dst
// is synced before returning. It fails when dst already exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.New("opening source file failed").
			WithType(ErrTypeFS).
			WithTag("src", src).
			Wrap(err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.New("reading source file info failed").
			WithType(ErrTypeFS).
			WithTag("src", src).
			Wrap(err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if os.IsExist(err) {
		return errors.New("destination file already exists").
			WithType(ErrTypeFS).
			WithTag("dst", dst).
			Wrap(err)
	}
	if err != nil {
		return errors.New("creating destination file failed").
			WithType(ErrTypeFS).
			WithTag("dst", dst).
			Wrap(err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.New("copying file failed").
			WithType(ErrTypeFS).
			WithTag("src", src).
			WithTag("dst", dst).
			Wrap(err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return errors.New("syncing destination file failed").
			WithType(ErrTypeFS).
			WithTag("dst", dst).
			Wrap(err)
	}

	if err := out.Close(); err != nil {
		return errors.New("closing destination file failed").
			WithType(ErrTypeFS).
			WithTag("dst", dst).
			Wrap(err)
	}
	return nil
}

// CopyToDir copies src into dir, keeping its base name. It returns the path of
// the copy.
func CopyToDir(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	return dst, CopyFile(src, dst)
}

// MoveFile moves src to dst without ever replacing an existing dst. The
// file is hard linked then unlinked from src. When linking is not possible,
// for example because src and dst are on different devices, the file is
// copied and the source removed.
func MoveFile(src, dst string) error {
	err := os.Link(src, dst)
	switch {
	case os.IsExist(err):
		return errors.New("destination file already exists").
			WithType(ErrTypeFS).
			WithTag("dst", dst).
			Wrap(err)

	case err != nil:
		if err := CopyFile(src, dst); err != nil {
			return err
		}
	}

	if err := os.Remove(src); err != nil {
		return errors.New("removing moved file failed").
			WithType(ErrTypeFS).
			WithTag("src", src).
			Wrap(err)
	}
	return nil
}

// IsEmptyDir reports whether dir exists and holds no entries.
func IsEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// ListFiles returns the sorted paths of the regular files directly inside
// dir.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New("listing directory failed").
			WithType(ErrTypeFS).
			WithTag("dir", dir).
			Wrap(err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}
