// Package storage persists photo and report artifacts under two logical
// roots. References stored in the database are root-relative ("uploads/x.jpg")
// and never absolute filesystem paths.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	RootUploads = "uploads"
	RootReports = "reports"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

// Store writes and reads objects addressed by root and name. Put must not
// leave a partially written object visible under name.
type Store interface {
	Put(ctx context.Context, root, name string, r io.Reader) error
	Open(ctx context.Context, root, name string) (io.ReadCloser, error)
	// Delete removes an object. A missing object is not an error.
	Delete(ctx context.Context, root, name string) error
}

// Ref joins a root and name into the stored reference form.
func Ref(root, name string) string {
	return root + "/" + name
}

// PublicPath is the URL path an artifact is served from.
func PublicPath(ref string) string {
	return "/" + strings.TrimPrefix(ref, "/")
}

// SplitRef parses "uploads/x.jpg", "/uploads/x.jpg" or a bare "x.jpg" (taken
// as an upload) into root and name.
func SplitRef(ref string) (string, string, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", "", ErrInvalidPath
	}
	root, name := RootUploads, ref
	if i := strings.Index(ref, "/"); i >= 0 {
		switch ref[:i] {
		case RootUploads, RootReports:
			root, name = ref[:i], ref[i+1:]
		}
	}
	if err := ValidateName(name); err != nil {
		return "", "", err
	}
	return root, name, nil
}

// ValidateName rejects anything that could escape its root.
func ValidateName(name string) error {
	if name == "" || strings.Contains(name, "\\") || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if path.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q", ErrInvalidPath, name)
		}
	}
	return nil
}

func ValidRoot(root string) bool {
	return root == RootUploads || root == RootReports
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName reduces a client supplied filename to its base with only
// filesystem friendly characters.
func SafeName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		return uuid.NewString()
	}
	return base
}

// ContentType guesses from the extension.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
