package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"moim/internal/core"
	"moim/internal/ledger"
)

// MaxPhotoBytes bounds a single uploaded image.
const MaxPhotoBytes = 5 << 20

var (
	ErrNotImage      = errors.New("file is not an image")
	ErrPhotoTooLarge = errors.New("image is too large")
	ErrEmptyFile     = errors.New("empty file")
)

// DataRef is an inline data: URL holding an uploaded image.
type DataRef string

// ReadDataURL reads an image and encodes it as a data URL. It blocks until
// the whole file is read, so the caller applies the result only after the
// read has completed. The declared content type is trusted only when it is
// an image type; otherwise the type is sniffed from the content.
func ReadDataURL(r io.Reader, contentType string, limit int64) (DataRef, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return "", ErrPhotoTooLarge
	}

	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}
	// Strip parameters such as "; charset=..." from sniffed types.
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	var buf bytes.Buffer
	buf.Grow(len("data:;base64,") + len(contentType) + base64.StdEncoding.EncodedLen(len(data)))
	buf.WriteString("data:")
	buf.WriteString(contentType)
	buf.WriteString(";base64,")
	buf.WriteString(base64.StdEncoding.EncodeToString(data))
	return DataRef(buf.String()), nil
}

// PhotoService adds photos to a meeting gallery and picks its thumbnail.
type PhotoService struct {
	photos ledger.PhotoWriter
}

func NewPhotoService(photos ledger.PhotoWriter) *PhotoService {
	return &PhotoService{photos: photos}
}

// Upload reads r into a data URL and appends it to the gallery.
func (s *PhotoService) Upload(ctx context.Context, meetingID string, r io.Reader, contentType, caption string) (core.Photo, error) {
	ref, err := ReadDataURL(r, contentType, MaxPhotoBytes)
	if err != nil {
		return core.Photo{}, err
	}
	return s.AddRef(ctx, meetingID, ref, caption)
}

// AddRef appends an already read image to the gallery.
func (s *PhotoService) AddRef(ctx context.Context, meetingID string, ref DataRef, caption string) (core.Photo, error) {
	photo := core.Photo{
		ID:      uuid.NewString(),
		URL:     string(ref),
		Caption: strings.TrimSpace(caption),
	}
	if err := s.photos.AddPhoto(ctx, meetingID, photo); err != nil {
		return core.Photo{}, fmt.Errorf("add photo: %w", err)
	}
	return photo, nil
}

func (s *PhotoService) SetThumbnail(ctx context.Context, meetingID, photoID string) error {
	if err := s.photos.SetThumbnail(ctx, meetingID, photoID); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	return nil
}
