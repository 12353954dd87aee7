package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"strings"

	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/storage"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAvatarSize           = 256
	DefaultAvatarMaxUploadBytes = 5 * 1024 * 1024
	AvatarWebPQuality           = 80

	avatarIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	avatarIDLength   = 16
)

// StoredImage is an uploaded avatar: the public URL and the id needed to delete it.
type StoredImage struct {
	URL        string
	ExternalID string
}

// AvatarService normalises profile pictures into square WebP images and
// hands them to the image store.
type AvatarService struct {
	store    storage.ImageStore
	size     int
	maxBytes int64
}

// NewAvatarService returns an AvatarService. Zero size or maxBytes use the defaults.
func NewAvatarService(store storage.ImageStore, size int, maxBytes int64) *AvatarService {
	if size <= 0 {
		size = DefaultAvatarSize
	}
	if maxBytes <= 0 {
		maxBytes = DefaultAvatarMaxUploadBytes
	}
	return &AvatarService{store: store, size: size, maxBytes: maxBytes}
}

// Store validates, crops and re-encodes content, then uploads it.
func (s *AvatarService) Store(ctx context.Context, content []byte) (*StoredImage, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	b := decoded.Bounds()
	side := min(b.Dx(), b.Dy())
	square := cropToRect(decoded, b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2, side, side)
	avatar := resizeToFit(square, s.size, s.size)

	encoded, err := encodeWebP(avatar, AvatarWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	id, err := nanoid.GenerateString(avatarIDAlphabet, avatarIDLength)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	key := "avatars/" + id + ".webp"

	url, err := s.store.Put(ctx, key, "image/webp", encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &StoredImage{URL: url, ExternalID: key}, nil
}

// Delete removes a previously stored avatar. An empty id is a no-op.
func (s *AvatarService) Delete(ctx context.Context, externalID string) error {
	if externalID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, externalID); err != nil {
		observability.Logger.WarnContext(ctx, "failed to delete avatar",
			"external_id", externalID, "error", err.Error())
		return err
	}
	return nil
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
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
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
