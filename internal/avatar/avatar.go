// Package avatar validates profile image uploads and normalizes them to a
// single canonical format before they are persisted.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// MaxUploadBytes caps the accepted upload payload at 1 MB.
	MaxUploadBytes = 1_000_000

	// Size is the fixed square dimension every stored avatar is resized to.
	Size = 250

	// ContentType is the canonical format every stored avatar is served as.
	ContentType = "image/png"
)

var (
	ErrTooLarge     = errors.New("avatar may not exceed 1 MB")
	ErrBadExtension = errors.New("avatar must be a .jpg, .jpeg or .png file")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateUpload checks the declared filename extension and payload size
// before any decoding happens.
func ValidateUpload(filename string, size int64) error {
	if size > MaxUploadBytes {
		return ErrTooLarge
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrBadExtension
	}
	return nil
}

// Normalize cover-crops the image to a Size x Size square and re-encodes it
// as PNG, regardless of the input format.
func Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}

	img = imaging.Fill(img, Size, Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
