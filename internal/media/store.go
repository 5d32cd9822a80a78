// Package media stores uploaded post images on local disk.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"picfeed/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxDimension bounds the longest edge of transcoded images.
	MaxDimension = 2048
	WebPQuality  = 80
	postsPrefix  = "posts"
)

// StoredImage describes a saved upload.
type StoredImage struct {
	Key      string
	URL      string
	MimeType string
	Width    int
	Height   int
	Size     int64
}

// Store writes images below Root and serves them from BaseURL.
type Store struct {
	Root          string
	BaseURL       string
	MaxBytes      int64
	TranscodeWebP bool
}

func NewStore(root, baseURL string, maxBytes int64, transcodeWebP bool) *Store {
	return &Store{
		Root:          root,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		MaxBytes:      maxBytes,
		TranscodeWebP: transcodeWebP,
	}
}

func imageError(msg string) error {
	return models.NewFieldValidationError(map[string]string{"image": msg})
}

// SaveImage validates content by sniffing and decoding it, then writes it under a random key.
// Still images are re-encoded to WebP when TranscodeWebP is set; GIFs are kept as uploaded.
func (s *Store) SaveImage(ctx context.Context, content []byte) (*StoredImage, error) {
	if len(content) == 0 {
		return nil, imageError("Image is required")
	}
	if s.MaxBytes > 0 && int64(len(content)) > s.MaxBytes {
		return nil, imageError(fmt.Sprintf("Image size cannot be exceed %dMB", s.MaxBytes/(1024*1024)))
	}

	detected := http.DetectContentType(content)
	ext, ok := allowedTypes[detected]
	if !ok {
		return nil, imageError("Only JPEG, PNG, GIF and WebP images are allowed")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, imageError("Upload a valid image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, mimeType := content, detected
	bounds := decoded.Bounds()
	if s.TranscodeWebP && detected != "image/gif" {
		resized := resizeToFit(decoded, MaxDimension, MaxDimension)
		encoded, err := encodeWebP(resized, WebPQuality)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		data, mimeType, ext = encoded, "image/webp", ".webp"
		bounds = resized.Bounds()
	}

	key := path.Join(postsPrefix, uuid.NewString()+ext)
	if err := writeBytesToFile(filepath.Join(s.Root, filepath.FromSlash(key)), data); err != nil {
		return nil, models.NewInternalError(err)
	}

	return &StoredImage{
		Key:      key,
		URL:      s.URL(key),
		MimeType: mimeType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     int64(len(data)),
	}, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *Store) Delete(key string) error {
	if key == "" {
		return nil
	}
	clean := path.Clean("/" + key)[1:]
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.BaseURL + "/" + key
}

// KeyForURL is the inverse of URL. It returns "" for URLs outside the store.
func (s *Store) KeyForURL(u string) string {
	key, ok := strings.CutPrefix(u, s.BaseURL+"/")
	if !ok {
		return ""
	}
	return key
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if hs := float64(maxHeight) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
