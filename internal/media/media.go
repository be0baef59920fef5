package media

import (
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sellerhub/internal/domain"
	applog "sellerhub/internal/log"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/media"

const (
	MaxFiles    = 10
	MaxFileSize = 5 << 20
)

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpeg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Store keeps uploaded product images on local disk under Dir.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "product_images"), 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Check rejects a file set before anything is written.
func Check(files []*multipart.FileHeader) error {
	if len(files) > MaxFiles {
		return fmt.Errorf("%w: at most %d images per product", domain.ErrValidation, MaxFiles)
	}
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			return fmt.Errorf("%w: image %q is larger than %d bytes", domain.ErrValidation, fh.Filename, MaxFileSize)
		}
		if _, ok := extensions[strings.ToLower(fh.Header.Get("Content-Type"))]; !ok {
			return fmt.Errorf("%w: image %q has unsupported type %q", domain.ErrValidation, fh.Filename, fh.Header.Get("Content-Type"))
		}
	}
	return nil
}

// SaveAll writes every file under a fresh name and returns the uploads in
// request order. If one file fails the ones already written are removed.
func (s *Store) SaveAll(c *fiber.Ctx, files []*multipart.FileHeader) ([]domain.ImageUpload, error) {
	if err := Check(files); err != nil {
		return nil, err
	}
	out := make([]domain.ImageUpload, 0, len(files))
	for _, fh := range files {
		ext := extensions[strings.ToLower(fh.Header.Get("Content-Type"))]
		name := fmt.Sprintf("%s_%d.%s", uuid.NewString(), time.Now().UnixNano(), ext)
		if err := c.SaveFile(fh, filepath.Join(s.Dir, "product_images", name)); err != nil {
			s.Remove(out)
			return nil, fmt.Errorf("save image %q: %w", fh.Filename, err)
		}
		out = append(out, domain.ImageUpload{
			OriginalName: filepath.Base(fh.Filename),
			StoragePath:  path.Join(URLPrefix, "product_images", name),
		})
	}
	return out, nil
}

// Remove deletes stored files, typically after the database write that would
// have referenced them was rolled back.
func (s *Store) Remove(uploads []domain.ImageUpload) {
	for _, u := range uploads {
		rel := strings.TrimPrefix(u.StoragePath, URLPrefix+"/")
		if err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
			applog.Warn(nil, "media.remove.fail", err, map[string]any{"path": u.StoragePath})
		}
	}
}
