package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sudonet/internal/config"
	"sudonet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(&config.Config{
		StorageDir:           t.TempDir(),
		StoragePublicURL:     "http://localhost:8375/",
		ImageMaxUploadSizeMB: 1,
	})
}

func TestStore_UploadWritesBothRenditions(t *testing.T) {
	s := newStore(t)
	key := PostImageKey()

	obj, err := s.Upload(context.Background(), UploadInput{
		Bucket:      BucketPostImages,
		Key:         key,
		ContentType: "image/png",
		Content:     tinyPNG(t, 64, 48),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8375/storage/post-images/"+key+".jpg", obj.URL)
	assert.True(t, strings.HasSuffix(obj.WebPURL, ".webp"))
	assert.Equal(t, 64, obj.Width)
	assert.Equal(t, 48, obj.Height)

	path, err := s.Resolve(BucketPostImages, key+".jpg")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", detectFormat(data))

	_, err = s.Resolve(BucketPostImages, key+".webp")
	assert.NoError(t, err)
}

func detectFormat(b []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return ""
	}
	return formatMIME(format)
}

func TestStore_UploadBoundsDimensions(t *testing.T) {
	s := New(&config.Config{StorageDir: t.TempDir(), StoragePublicURL: "http://x", ImageMaxUploadSizeMB: 10})

	obj, err := s.Upload(context.Background(), UploadInput{
		Bucket:  BucketPostImages,
		Content: tinyPNG(t, 4096, 1024),
	})
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, obj.Width)
	assert.Equal(t, 512, obj.Height)
}

func TestStore_UploadValidation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   UploadInput
		code string
	}{
		{"unknown bucket", UploadInput{Bucket: "avatars", Content: tinyPNG(t, 4, 4)}, models.CodeValidation},
		{"empty", UploadInput{Bucket: BucketPostImages}, models.CodeValidation},
		{"not an image", UploadInput{Bucket: BucketPostImages, Content: []byte("plain text here")}, models.CodeValidation},
		{"type mismatch", UploadInput{Bucket: BucketPostImages, ContentType: "image/gif", Content: tinyPNG(t, 4, 4)}, models.CodeValidation},
		{"traversal", UploadInput{Bucket: BucketPostImages, Key: "../escape", Content: tinyPNG(t, 4, 4)}, models.CodeValidation},
		{"too large", UploadInput{Bucket: BucketPostImages, Content: bytes.Repeat([]byte{0}, 2*1024*1024)}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Upload(ctx, tt.in)
			assert.Equal(t, tt.code, models.ErrorCode(err))
		})
	}
}

func TestStore_UpsertSemantics(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	key := ProfilePhotoKey("u1", time.UnixMilli(1700000000000))
	assert.Equal(t, "u1-1700000000000", key)

	in := UploadInput{Bucket: BucketProfilePhotos, Key: key, Content: tinyPNG(t, 8, 8)}
	_, err := s.Upload(ctx, in)
	require.NoError(t, err)

	_, err = s.Upload(ctx, in)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	in.Upsert = true
	_, err = s.Upload(ctx, in)
	assert.NoError(t, err)
}

func TestStore_NotConfigured(t *testing.T) {
	s := New(&config.Config{StorageDir: t.TempDir()})
	assert.False(t, s.Configured())

	_, err := s.Upload(context.Background(), UploadInput{Bucket: BucketPostImages, Content: []byte{1}})
	assert.ErrorIs(t, err, models.ErrNotConfigured)
}

func TestStore_Resolve(t *testing.T) {
	s := newStore(t)

	_, err := s.Resolve(BucketPostImages, "missing.jpg")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = s.Resolve(BucketPostImages, "../../etc/passwd")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = s.Resolve("nope", "a.jpg")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	assert.Equal(t, int64(ProfilePhotoMaxBytes), s.MaxBytes(BucketProfilePhotos))
	assert.Equal(t, filepath.Join(s.dir, "post-images", "posts", "a.jpg"), s.objectPath(BucketPostImages, "posts/a.jpg"))
}
