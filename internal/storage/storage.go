// Package storage keeps generated avatars, user images and chat uploads.
// Keys are slash separated and relative, e.g. "avatars/<file>.png".
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("file not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Well known key prefixes
const (
	AvatarsDir = "avatars"
	UserDir    = "user"
	ChatDir    = "chat"
)

type Storage interface {
	// Save writes data under key, replacing anything already there
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Read(ctx context.Context, key string) ([]byte, error)
	// Open streams the file. Callers must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, key string) error
}

// Key joins dir and name and rejects anything that would escape the
// storage root
func Key(dir, name string) (string, error) {
	return CleanKey(dir + "/" + name)
}

func CleanKey(k string) (string, error) {
	if k == "" || strings.Contains(k, "\\") || strings.ContainsRune(k, 0) {
		return "", ErrInvalidKey
	}

	for _, seg := range strings.Split(k, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}

	cleaned := strings.TrimPrefix(path.Clean("/"+k), "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidKey
	}

	return cleaned, nil
}

// PublicURL is the path files are served under
func PublicURL(key string) string {
	return "/uploads/" + key
}
