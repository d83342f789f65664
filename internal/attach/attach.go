// Package attach converts images between files on disk and the
// binary-as-text data URLs the backend speaks.
//
// Uploads mirror the web client's FileReader: the file is read and
// encoded as a base64 data URL. Downloads go the other way: an answer's
// data URL is written under the data directory with a generated name,
// since a terminal cannot display it inline.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize bounds an uploaded image (10MB). The backend would
// reject more anyway; failing locally is friendlier.
const MaxFileSize = 10 * 1024 * 1024

var (
	// ErrNotADataURL indicates the string is not a data URL.
	ErrNotADataURL = errors.New("not a data URL")

	// ErrTooLarge indicates the image exceeds MaxFileSize.
	ErrTooLarge = errors.New("image exceeds maximum size")
)

// mimeTypes maps file extensions to the MIME types the backend accepts.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// extensions is the reverse mapping used when saving.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// EncodeFile reads an image file and returns it as a data URL.
func EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// SaveDataURL decodes a data URL into dir and returns the written
// file's path. The name is generated; the extension follows the MIME
// type, defaulting to .bin for unknown types.
func SaveDataURL(dir, dataURL string) (string, error) {
	mime, payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decoding image payload: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}

	ext, ok := extensions[mime]
	if !ok {
		ext = ".bin"
	}
	path := filepath.Join(dir, uuid.NewString()+ext)

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

// splitDataURL parses "data:<mime>;base64,<payload>".
func splitDataURL(s string) (mime, payload string, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", "", ErrNotADataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", ErrNotADataURL
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", "", fmt.Errorf("%w: unsupported encoding %q", ErrNotADataURL, enc)
	}
	return mime, payload, nil
}
