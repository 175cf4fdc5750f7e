package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ryanbastic/go-pagegrid/internal/media"
)

// multipartOverhead is allowed on top of the file size for the other form
// fields and part headers.
const multipartOverhead = 1 << 20

// MediaHandler accepts image and video uploads for media blocks.
type MediaHandler struct {
	uploader *media.Uploader
	logger   *slog.Logger
}

func NewMediaHandler(uploader *media.Uploader, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{uploader: uploader, logger: logger}
}

// Upload handles a multipart form with a "kind" field (image or video) and
// a "file" part. The response is the stored asset.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploader.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	kind := media.Kind(r.FormValue("kind"))
	asset, err := h.uploader.Upload(r.Context(), kind, header.Filename, header.Header.Get("Content-Type"), file)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, asset)
	case errors.Is(err, media.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrContentTypeMismatch):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, media.ErrUnsupportedKind), errors.Is(err, media.ErrEmpty):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("failed to store upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
