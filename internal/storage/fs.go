package storage

import (
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: abs}, nil
}

// clean maps a slash-separated key to a path under base. Keys may not climb
// out of base.
func (s *FSStore) clean(key string) (string, string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))[1:]
	if k == "" || k == "." {
		return "", "", ErrBadKey
	}
	return k, filepath.Join(s.base, filepath.FromSlash(k)), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	k, dst, err := s.clean(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return k, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	_, p, err := s.clean(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) SignedURL(key string) (string, error) {
	_, p, err := s.clean(key)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String(), nil
}
