// Package images validates, resizes and stores uploaded product images and
// deletes them again when they are replaced.
package images

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/jpegli"
	"github.com/sbilibin2017/gw-catalog/internal/logger"

	// registers the webp decoder with image.Decode
	_ "golang.org/x/image/webp"
)

const (
	MaxFiles     = 5       // files per request
	MaxFileSize  = 5 << 20 // bytes per file
	MaxDimension = 1000    // bounding box edge in pixels
	JPEGQuality  = 80
	URLPrefix    = "/uploads/"

	// MaxInputPixels bounds width*height of a decoded upload (16383 squared).
	MaxInputPixels = 0x3FFF * 0x3FFF
)

var (
	// ErrProcessing is returned when an accepted upload cannot be decoded, resized or written.
	ErrProcessing = errors.New("error processing image")
	// ErrInvalidFilename is returned by Delete for names that could escape the upload directory.
	ErrInvalidFilename = errors.New("invalid filename")
)

// encodingOptions writes progressive JPEG at JPEGQuality.
var encodingOptions = &jpegli.EncodingOptions{
	Quality:          JPEGQuality,
	ProgressiveLevel: 2,
	OptimizeCoding:   true,
}

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ValidationError rejects an upload before any file is processed.
type ValidationError struct {
	Filename string
	Message  string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Upload is a buffered file from a multipart request.
type Upload struct {
	Filename    string // client supplied name
	ContentType string // client supplied MIME type
	Data        []byte
}

// Processed describes a stored image.
type Processed struct {
	Filename     string
	OriginalName string
	DetectedType string
	Size         int
	Width        int
	Height       int
}

// URL is the public path the image is served under.
func (p Processed) URL() string {
	return URL(p.Filename)
}

// Validate checks count, size, declared type, extension and name of every upload.
// It returns the first *ValidationError found.
func Validate(uploads []Upload) error {
	if len(uploads) > MaxFiles {
		return &ValidationError{Message: fmt.Sprintf("Too many files. Maximum is %d.", MaxFiles)}
	}
	for _, u := range uploads {
		if len(u.Data) > MaxFileSize {
			return &ValidationError{Filename: u.Filename, Message: "File too large. Maximum size is 5MB."}
		}
		mediaType, _, err := mime.ParseMediaType(u.ContentType)
		if err != nil {
			mediaType = strings.ToLower(strings.TrimSpace(u.ContentType))
		}
		if _, ok := allowedTypes[mediaType]; !ok {
			return &ValidationError{Filename: u.Filename, Message: "Invalid file type. Only JPEG, PNG and WebP images are allowed."}
		}
		if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(u.Filename))]; !ok {
			return &ValidationError{Filename: u.Filename, Message: "Invalid file extension."}
		}
		if !validOriginalName(u.Filename) {
			return &ValidationError{Filename: u.Filename, Message: "Invalid filename."}
		}
	}
	return nil
}

func validOriginalName(name string) bool {
	if name == "" || strings.Contains(name, "..") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"/\|?*`, r) {
			return false
		}
	}
	return true
}

// URL returns the public path of a stored file.
func URL(filename string) string {
	return URLPrefix + filename
}

// FilenameFromURL returns the last path segment of an image URL.
func FilenameFromURL(u string) string {
	return path.Base(u)
}

// Store writes processed images into a single directory.
type Store struct {
	dir    string
	now    func() time.Time
	random io.Reader
}

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now, random: rand.Reader}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// GenerateFilename returns "<unix millis>-<32 hex chars><lowercased ext>".
func (s *Store) GenerateFilename(original string) (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), hex.EncodeToString(b), strings.ToLower(filepath.Ext(original))), nil
}

// Process resizes every upload to fit MaxDimension, re-encodes it as progressive JPEG and
// writes it to the store. If any upload fails, files already written by this
// call are removed and an error wrapping ErrProcessing is returned.
func (s *Store) Process(ctx context.Context, uploads []Upload) ([]Processed, error) {
	processed := make([]Processed, 0, len(uploads))
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			s.cleanupProcessed(processed)
			return nil, err
		}

		p, err := s.processOne(u)
		if err != nil {
			logger.Log.Errorw("failed to process image", "filename", u.Filename, "error", err)
			s.cleanupProcessed(processed)
			return nil, fmt.Errorf("%w: %s: %v", ErrProcessing, u.Filename, err)
		}
		processed = append(processed, p)
	}
	return processed, nil
}

func (s *Store) processOne(u Upload) (Processed, error) {
	detected := mimetype.Detect(u.Data)
	if _, ok := allowedTypes[detected.String()]; !ok {
		return Processed{}, fmt.Errorf("unsupported content type %s", detected.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(u.Data))
	if err != nil {
		return Processed{}, fmt.Errorf("decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return Processed{}, fmt.Errorf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, MaxInputPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(u.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Processed{}, fmt.Errorf("decode: %w", err)
	}
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	name, err := s.GenerateFilename(u.Filename)
	if err != nil {
		return Processed{}, fmt.Errorf("generate filename: %w", err)
	}

	fullPath := filepath.Join(s.dir, name)
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Processed{}, fmt.Errorf("create file: %w", err)
	}
	if err := jpegli.Encode(f, img, encodingOptions); err != nil {
		f.Close()
		os.Remove(fullPath)
		return Processed{}, fmt.Errorf("encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return Processed{}, fmt.Errorf("close file: %w", err)
	}

	bounds := img.Bounds()
	logger.Log.Infow("image stored",
		"filename", name,
		"original", u.Filename,
		"detected_type", detected.String(),
		"width", bounds.Dx(),
		"height", bounds.Dy(),
	)

	return Processed{
		Filename:     name,
		OriginalName: u.Filename,
		DetectedType: detected.String(),
		Size:         len(u.Data),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
	}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *Store) Delete(filename string) error {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return ErrInvalidFilename
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Cleanup deletes the named files, logging and otherwise ignoring failures.
func (s *Store) Cleanup(filenames ...string) {
	for _, name := range filenames {
		if err := s.Delete(name); err != nil {
			logger.Log.Warnw("failed to delete image", "filename", name, "error", err)
		}
	}
}

// DeleteURLs deletes the files behind image URLs, logging and otherwise ignoring failures.
func (s *Store) DeleteURLs(urls ...string) {
	names := make([]string, 0, len(urls))
	for _, u := range urls {
		names = append(names, FilenameFromURL(u))
	}
	s.Cleanup(names...)
}

func (s *Store) cleanupProcessed(processed []Processed) {
	for _, p := range processed {
		s.Cleanup(p.Filename)
	}
}
