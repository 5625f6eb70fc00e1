package handler

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/core/services"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

// FileHandler accepts uploads into the caller's own directory of the byte store.
type FileHandler struct {
	blobs    ports.BlobStore
	maxBytes int64
}

func NewFileHandler(blobs ports.BlobStore, maxBytes int64) *FileHandler {
	return &FileHandler{blobs: blobs, maxBytes: maxBytes}
}

type UploadResponse struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// Upload stores the request body at "<owner>/<path>".
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	if owner == "" {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}

	rel := strings.Trim(r.PathValue("path"), "/")
	if rel == "" {
		writeError(w, r, domain.NewValidationError("path", "is required"))
		return
	}
	filePath := owner + "/" + rel
	if !services.InScope(owner, filePath) {
		writeError(w, r, domain.ErrForbidden)
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	n, err := h.blobs.Put(r.Context(), filePath, r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "file is too large",
				Code:  "too_large",
			})
			return
		}
		writeError(w, r, errors.Join(domain.ErrStorageUnavailable, err))
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		FilePath: filePath,
		FileName: path.Base(filePath),
		FileSize: n,
	})
}
