// Package upload stores applicant file uploads under the media directory
// with an extension whitelist and the 5 MB ceiling enforced here rather than
// trusted from the client.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize is the per-file ceiling (5 MB).
const MaxFileSize = 5 * 1024 * 1024

// Extension whitelists for the two upload slots.
var (
	CVExtensions      = []string{".pdf", ".doc", ".docx"}
	ReceiptExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
)

var (
	ErrTooLarge     = errors.New("upload: file exceeds 5MB limit")
	ErrBadExtension = errors.New("upload: file type not allowed")
)

// Save writes the uploaded file into dir under mediaRoot and returns the
// path relative to mediaRoot. The stored name is a fresh uuid plus the
// original extension so uploads can never collide or traverse paths.
func Save(fh *multipart.FileHeader, mediaRoot, dir string, allowed []string) (string, error) {
	if fh.Size > MaxFileSize {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt(allowed, ext) {
		return "", fmt.Errorf("%w: %s", ErrBadExtension, ext)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	rel := filepath.Join(dir, uuid.NewString()+ext)
	full := filepath.Join(mediaRoot, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("media dir: %w", err)
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", full, err)
	}
	defer dst.Close()

	// A second guard on the byte count; Size comes from the client.
	n, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("store upload: %w", err)
	}
	if n > MaxFileSize {
		os.Remove(full)
		return "", ErrTooLarge
	}
	return rel, nil
}

func allowedExt(allowed []string, ext string) bool {
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}
