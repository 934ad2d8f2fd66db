package util

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

var ErrEmptyImage = errors.New("image data is empty")

// DecodeImageDataURL accepts either a data:image/...;base64 URL or bare
// base64 and returns the raw bytes
func DecodeImageDataURL(s string) ([]byte, error) {
	raw := strings.TrimSpace(dataURLPrefix.ReplaceAllString(s, ""))
	if raw == "" {
		return nil, ErrEmptyImage
	}

	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}

	if len(b) == 0 {
		return nil, ErrEmptyImage
	}

	return b, nil
}

// PNGDataURL encodes b as a data:image/png;base64 URL
func PNGDataURL(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}
