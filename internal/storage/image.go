package storage

import (
	"bytes"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"strings"

	// Decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/png"

	"sudonet/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxDimension = 2048
	JPEGQuality  = 82
	WebPQuality  = 70
)

// normalized is an upload re-encoded into the served formats.
type normalized struct {
	JPEG   []byte
	WebP   []byte
	Width  int
	Height int
}

// normalizeImage validates content as an image, bounds its size and
// re-encodes it as JPEG plus a WebP sibling.
func normalizeImage(content []byte, declaredType string) (*normalized, error) {
	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(declaredType); strings.HasPrefix(provided, "image/") &&
		!sameImageType(provided, formatMIME(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	bounded := resizeToFit(decoded, MaxDimension, MaxDimension)

	jpg, err := encodeJPEG(bounded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	wp, err := encodeWebP(bounded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := bounded.Bounds()
	return &normalized{JPEG: jpg, WebP: wp, Width: b.Dx(), Height: b.Dy()}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func sameImageType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == detected
}

func formatMIME(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}
