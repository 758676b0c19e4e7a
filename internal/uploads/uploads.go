package uploads

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/roomwise/roomwise/internal/models"
)

// DefaultMaxBytes is the upload size cap used when none is configured.
const DefaultMaxBytes = 10 * 1024 * 1024

var (
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not an image")
)

// Store saves uploaded wall images under a directory, named by content hash.
type Store struct {
	dir        string
	maxBytes   int64
	httpClient *http.Client
}

// New returns a Store rooted at dir. maxBytes <= 0 uses DefaultMaxBytes.
func New(dir string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		dir:        dir,
		maxBytes:   maxBytes,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Dir returns the directory images are written to.
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the upload size cap.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Scoped returns a Store that writes under the owner subdirectory, so each
// wizard session keeps its images apart and can drop them together.
func (s *Store) Scoped(owner string) (*Store, error) {
	if !plainName(owner) {
		return nil, fmt.Errorf("invalid upload scope %q", owner)
	}
	return &Store{
		dir:        filepath.Join(s.dir, owner),
		maxBytes:   s.maxBytes,
		httpClient: s.httpClient,
	}, nil
}

// RemoveScope deletes every image stored for owner.
func (s *Store) RemoveScope(owner string) error {
	if !plainName(owner) {
		return fmt.Errorf("invalid upload scope %q", owner)
	}
	if err := os.RemoveAll(filepath.Join(s.dir, owner)); err != nil {
		return fmt.Errorf("failed to remove uploads for %s: %w", owner, err)
	}
	return nil
}

// Read reads at most the size cap from r and returns ErrTooLarge when the
// reader holds more.
func (s *Store) Read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, s.maxBytes)
	}
	return data, nil
}

// Save writes the image bytes to disk and describes the stored file.
func (s *Store) Save(data []byte, filename string) (*models.ImageFile, error) {
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	sum := md5.Sum(data)
	md5Hash := hex.EncodeToString(sum[:])
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = extensionFor(contentType)
	}
	imageFilename := md5Hash + ext
	imageFilePath := filepath.Join(s.dir, imageFilename)

	if err := os.WriteFile(imageFilePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	slog.Info("Image saved", "filename", imageFilename, "size", len(data))

	width, height, err := dimensions(data)
	if err != nil {
		slog.Warn("Failed to get image dimensions", "filename", imageFilename, "error", err)
		width, height = 0, 0
	}

	return &models.ImageFile{
		Filename:    imageFilename,
		Path:        imageFilePath,
		ContentType: contentType,
		Size:        int64(len(data)),
		Width:       width,
		Height:      height,
		MD5:         md5Hash,
	}, nil
}

// SaveFile reads a local image file and saves it into the store.
func (s *Store) SaveFile(p string) (*models.ImageFile, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := s.Read(f)
	if err != nil {
		return nil, err
	}
	return s.Save(data, filepath.Base(p))
}

// Download fetches an image by URL and saves it into the store.
func (s *Store) Download(ctx context.Context, imageURL string) (*models.ImageFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := s.Read(resp.Body)
	if err != nil {
		return nil, err
	}

	filename := path.Base(req.URL.Path)
	if filename == "" || filename == "/" || filename == "." {
		filename = "image"
	}
	return s.Save(data, filename)
}

// Open returns the stored bytes of an image.
func (s *Store) Open(file *models.ImageFile) ([]byte, error) {
	if file == nil {
		return nil, fmt.Errorf("no image file")
	}
	data, err := os.ReadFile(s.resolve(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", file.Filename, err)
	}
	return data, nil
}

// Path returns the on-disk path of a stored file name, rejecting anything
// that is not a plain file name.
func (s *Store) Path(name string) (string, bool) {
	if !plainName(name) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

func plainName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.Contains(name, "..")
}

func (s *Store) resolve(file *models.ImageFile) string {
	if file.Path != "" {
		return file.Path
	}
	return filepath.Join(s.dir, file.Filename)
}

func dimensions(data []byte) (int, int, error) {
	img, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return img.Width, img.Height, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}
