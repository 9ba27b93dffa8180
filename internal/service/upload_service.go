package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math/rand/v2"
	"mime"
	"path"
	"strings"
	"time"

	"cinelog/internal/config"
	"cinelog/internal/featureflags"
	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/observability"
	"cinelog/internal/storage"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Upload destinations below the storage root.
const (
	UploadKindProfile = "profiles"
	UploadKindReview  = "reviews"
)

const (
	DefaultUploadMaxSizeMB = 5
	VariantMaxSize         = 1080
	WebPQuality            = 70
)

// UploadFile is one file received in a multipart request.
type UploadFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// UploadService validates image uploads and writes them to storage.
type UploadService struct {
	store    storage.Storage
	flags    *featureflags.Manager
	maxBytes int64
	now      func() time.Time
}

// NewUploadService wires the service to a storage backend. flags may be nil.
func NewUploadService(store storage.Storage, flags *featureflags.Manager, cfg *config.Config) *UploadService {
	maxMB := DefaultUploadMaxSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxMB = cfg.ImageMaxUploadSizeMB
	}
	return &UploadService{
		store:    store,
		flags:    flags,
		maxBytes: int64(maxMB) << 20,
		now:      time.Now,
	}
}

// MaxBytes is the per-file size limit.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Validate checks size, sniffed type and decodability. It returns the decoded
// image and its canonical MIME type.
func (s *UploadService) Validate(f UploadFile) (image.Image, string, error) {
	if len(f.Content) == 0 {
		return nil, "", s.reject("empty", "No file uploaded")
	}
	if int64(len(f.Content)) > s.maxBytes {
		return nil, "", s.reject("too_large", fmt.Sprintf("File too large (max %dMB)", s.maxBytes>>20))
	}

	detected := mimetype.Detect(f.Content)
	if !isAllowedImageMIME(detected.String()) {
		return nil, "", s.reject("type", "Only image files are allowed (JPEG, PNG, GIF, WebP)")
	}

	decoded, format, err := image.Decode(bytes.NewReader(f.Content))
	if err != nil {
		return nil, "", s.reject("decode", "Invalid image file")
	}
	sourceMime := decodedFormatToMime(format)
	if sourceMime == "" {
		return nil, "", s.reject("type", "Unsupported image format")
	}
	if provided := normalizeContentType(f.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMime) {
		return nil, "", s.reject("mismatch", "Image content type mismatch")
	}
	return decoded, sourceMime, nil
}

func (s *UploadService) reject(reason, message string) error {
	observability.UploadsRejected.WithLabelValues(reason).Inc()
	return models.NewValidationError(message)
}

// Store validates and writes one file, returning its public path.
func (s *UploadService) Store(ctx context.Context, userID uint, kind string, f UploadFile) (string, error) {
	decoded, mimeType, err := s.Validate(f)
	if err != nil {
		return "", err
	}

	name := s.fileName(f, mimeType)
	publicPath, err := s.store.Save(ctx, kind, name, f.Content)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	observability.UploadsStored.WithLabelValues(kind).Inc()

	if s.flags != nil && s.flags.Enabled(featureflags.WebPVariants, userID) {
		if err := s.storeVariant(ctx, kind, name, decoded); err != nil {
			middleware.Logger.WarnContext(ctx, "webp variant failed", "path", publicPath, "error", err)
		}
	}
	return publicPath, nil
}

// StoreAll stores every file or none of them.
func (s *UploadService) StoreAll(ctx context.Context, userID uint, kind string, files []UploadFile) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := s.Store(ctx, userID, kind, f)
		if err != nil {
			s.Remove(ctx, paths...)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Remove deletes stored files and their variants. Failures are logged only.
func (s *UploadService) Remove(ctx context.Context, publicPaths ...string) {
	for _, p := range publicPaths {
		if p == "" || !strings.HasPrefix(p, storage.PublicPrefix+"/") {
			continue
		}
		for _, target := range []string{p, VariantPath(p)} {
			if err := s.store.Remove(ctx, target); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to remove upload", "path", target, "error", err)
			}
		}
	}
}

func (s *UploadService) storeVariant(ctx context.Context, kind, name string, src image.Image) error {
	encoded, err := encodeWebP(resizeToFit(src, VariantMaxSize, VariantMaxSize), WebPQuality)
	if err != nil {
		return err
	}
	_, err = s.store.Save(ctx, kind, VariantPath(name), encoded)
	return err
}

// fileName builds "<field>-<unixMillis>-<rand9><ext>".
func (s *UploadService) fileName(f UploadFile, mimeType string) string {
	field := f.Field
	if field == "" || !isSafeField(field) {
		field = "file"
	}
	return fmt.Sprintf("%s-%d-%d%s", field, s.now().UnixMilli(), rand.IntN(1_000_000_000), extensionFor(f.Filename, mimeType))
}

// VariantPath names the webp sibling of a stored file.
func VariantPath(p string) string {
	ext := path.Ext(p)
	base := strings.TrimSuffix(p, ext)
	if strings.EqualFold(ext, ".webp") {
		return base + ".1080.webp"
	}
	return base + ".webp"
}

func isSafeField(field string) bool {
	for _, r := range field {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// extensionFor keeps the client's extension when it agrees with the content.
func extensionFor(filename, mimeType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" && isMatchingContentType(mime.TypeByExtension(ext), mimeType) {
		return ext
	}
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".webp"
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
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

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
