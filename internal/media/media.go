package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
)

var (
	ErrUnsupportedKind     = errors.New("unsupported media kind")
	ErrContentTypeMismatch = errors.New("content type does not match media kind")
	ErrTooLarge            = errors.New("media file too large")
	ErrEmpty               = errors.New("media file is empty")
)

// Kind is the block type an asset is uploaded for.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// accepted maps each kind to its allowed content types and file extensions.
var accepted = map[Kind]map[string]string{
	KindImage: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
	},
	KindVideo: {
		"video/mp4":  ".mp4",
		"video/webm": ".webm",
		"video/ogg":  ".ogv",
	},
}

// Asset describes a stored upload. URL goes into the block's metadata.url.
type Asset struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Kind        Kind   `json:"kind"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Storage persists uploaded files under a generated name.
type Storage interface {
	Put(ctx context.Context, name string, r io.Reader) error
	URL(name string) string
}

// Uploader checks uploads against their declared kind and hands accepted
// files to a Storage.
type Uploader struct {
	storage  Storage
	maxBytes int64
	logger   *slog.Logger
}

// NewUploader creates an Uploader accepting files up to maxBytes.
func NewUploader(storage Storage, maxBytes int64, logger *slog.Logger) *Uploader {
	return &Uploader{storage: storage, maxBytes: maxBytes, logger: logger}
}

// MaxBytes is the largest accepted file size.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload validates and stores one file. filename is only logged; the
// stored name is generated.
func (u *Uploader) Upload(ctx context.Context, kind Kind, filename, contentType string, r io.Reader) (Asset, error) {
	types, ok := accepted[kind]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %q", ErrContentTypeMismatch, contentType)
	}
	ext, ok := types[mediaType]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s is not an accepted %s type", ErrContentTypeMismatch, mediaType, kind)
	}

	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return Asset{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return Asset{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, u.maxBytes)
	}
	if len(data) == 0 {
		return Asset{}, ErrEmpty
	}

	if sniffed := sniff(data); !sameType(mediaType, sniffed) {
		return Asset{}, fmt.Errorf("%w: declared %s, content looks like %s", ErrContentTypeMismatch, mediaType, sniffed)
	}

	asset := Asset{
		Name:        uuid.NewString() + ext,
		Kind:        kind,
		ContentType: mediaType,
		Size:        int64(len(data)),
	}

	if kind == KindImage {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return Asset{}, fmt.Errorf("%w: decode image header: %v", ErrContentTypeMismatch, err)
		}
		asset.Width, asset.Height = cfg.Width, cfg.Height
	}

	if err := u.storage.Put(ctx, asset.Name, bytes.NewReader(data)); err != nil {
		return Asset{}, fmt.Errorf("store media: %w", err)
	}
	asset.URL = u.storage.URL(asset.Name)

	metrics.ObserveUpload(string(kind))
	u.logger.Info("media uploaded",
		"name", asset.Name, "filename", filename, "kind", kind, "content_type", mediaType, "size", asset.Size)
	return asset, nil
}

func sniff(data []byte) string {
	t, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return t
}

// sameType reports whether the sniffed type agrees with the declared one.
// Ogg containers sniff as application/ogg.
func sameType(declared, sniffed string) bool {
	if declared == sniffed {
		return true
	}
	return declared == "video/ogg" && slices.Contains([]string{"application/ogg", "audio/ogg"}, sniffed)
}
