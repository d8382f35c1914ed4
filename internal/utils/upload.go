package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PhotoSubdir is the directory under the upload root holding restaurant photos.
const PhotoSubdir = "restaurants"

// ErrUnsupportedImage is returned for photos with an extension outside
// AllowedImageExt.
var ErrUnsupportedImage = errors.New("unsupported image type")

// AllowedImageExt lists the accepted photo extensions.
var AllowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// SavePhoto copies an uploaded file to uploadDir/restaurants under a random
// name and returns its path relative to uploadDir, using forward slashes.
func SavePhoto(fh *multipart.FileHeader, uploadDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !AllowedImageExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(uploadDir, PhotoSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return path.Join(PhotoSubdir, name), nil
}

// RemovePhoto deletes a photo previously returned by SavePhoto.  Missing
// files are not an error.
func RemovePhoto(uploadDir, rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("photo path %q escapes upload dir", rel)
	}
	err := os.Remove(filepath.Join(uploadDir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
