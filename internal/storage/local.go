// Package storage keeps uploaded images on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"alugserv/internal/apperr"
)

// AllowedExtensions lists the accepted upload types.
var AllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}

type Local struct {
	Dir      string // filesystem root, e.g. ./uploads
	URL      string // public prefix, e.g. /uploads
	MaxBytes int64
}

func NewLocal(dir, url string, maxBytes int64) *Local {
	return &Local{Dir: dir, URL: strings.TrimRight(url, "/"), MaxBytes: maxBytes}
}

// Save validates fh and writes it to <Dir>/<folder>/<uuid>.<ext>. It returns
// the public path of the stored file.
func (l *Local) Save(fh *multipart.FileHeader, folder string) (string, error) {
	if l.MaxBytes > 0 && fh.Size > l.MaxBytes {
		return "", apperr.Validation("file too large (max %d MB)", l.MaxBytes>>20)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
	if !allowed(ext) {
		return "", apperr.Validation("file type not allowed (use %s)", strings.Join(AllowedExtensions, ", "))
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperr.Internal(err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", apperr.Validation("file content is not an image")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Internal(err)
	}

	folder = cleanFolder(folder)
	dir := filepath.Join(l.Dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Internal(err)
	}
	name := uuid.NewString() + "." + ext
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", apperr.Internal(err)
	}
	if err := dst.Close(); err != nil {
		return "", apperr.Internal(err)
	}
	return path.Join(l.URL, folder, name), nil
}

// Delete removes a file previously returned by Save. Paths outside the
// public prefix (remote URLs, imported images) are left alone.
func (l *Local) Delete(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, l.URL+"/")
	if !ok || rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("refusing to delete %q", publicPath)
	}
	err := os.Remove(filepath.Join(l.Dir, filepath.FromSlash(clean)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func allowed(ext string) bool {
	for _, a := range AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

func cleanFolder(folder string) string {
	folder = path.Clean("/" + strings.ReplaceAll(folder, "\\", "/"))[1:]
	if folder == "" {
		return "misc"
	}
	return folder
}
