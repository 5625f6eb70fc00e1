package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

// maxExpiresInSeconds is 100 years.
const maxExpiresInSeconds = 100 * 365 * 24 * 60 * 60

// maxJSONBytes caps request payloads on the JSON routes.
const maxJSONBytes = 8 << 10

type ShareHandler struct {
	service  ports.ShareService
	validate *validator.Validate
}

func NewShareHandler(service ports.ShareService) *ShareHandler {
	return &ShareHandler{service: service, validate: newValidator()}
}

// CreateShareRequest payload. ExpiresIn is in seconds.
type CreateShareRequest struct {
	FilePath     string  `json:"filePath" validate:"required,max=1024"`
	FileName     string  `json:"fileName" validate:"required,max=255"`
	FileSize     int64   `json:"fileSize" validate:"gte=0"`
	ExpiresIn    *int64  `json:"expiresIn,omitempty" validate:"omitnil,gte=-3153600000,lte=3153600000"`
	Password     *string `json:"password,omitempty"`
	MaxDownloads *int    `json:"maxDownloads,omitempty" validate:"omitnil,gt=0"`
}

// DownloadRequest payload. The body may be empty.
type DownloadRequest struct {
	Password *string `json:"password,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads at most maxJSONBytes of the body into dst. An empty body
// is reported as io.EOF.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}

	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		return domain.NewValidationError("body", "is too large")
	case errors.As(err, &typeErr):
		return domain.NewValidationError(typeErr.Field, "has the wrong type")
	default:
		return domain.NewValidationError("body", "is not valid JSON")
	}
}

// bindJSON decodes and validates the body into dst, reporting failures as
// validation errors.
func bindJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "is required")
		}
		return err
	}
	if err := v.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return domain.NewValidationError(ve[0].Field(), "failed on "+ve[0].Tag())
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

// Create a share link
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateShareRequest
	if err := bindJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := ports.CreateLinkInput{
		FilePath:     req.FilePath,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		Password:     req.Password,
		MaxDownloads: req.MaxDownloads,
	}
	if req.ExpiresIn != nil {
		d := time.Duration(*req.ExpiresIn) * time.Second
		in.ExpiresIn = &d
	}

	link, err := h.service.CreateLink(r.Context(), OwnerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	linksCreated.Inc()
	writeJSON(w, http.StatusCreated, link)
}

// List the caller's links
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListLinks(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": links,
	})
}

// Deactivate a link
func (h *ShareHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateLink(r.Context(), OwnerFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete a link
func (h *ShareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLink(r.Context(), OwnerFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Info returns the public, display-safe view of a link
func (h *ShareHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetPublicInfo(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, info)
}

// Download redeems a link and streams the file back
func (h *ShareHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, err)
		return
	}

	dl, err := h.service.DownloadFile(r.Context(), r.PathValue("token"), req.Password)
	if err != nil {
		downloads.WithLabelValues(downloadOutcome(err)).Inc()
		writeError(w, r, err)
		return
	}
	downloads.WithLabelValues("success").Inc()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

// downloadOutcome labels a failed redemption for the downloads metric. All
// policy denials share one label.
func downloadOutcome(err error) string {
	if domain.IsPolicyDenial(err) {
		return "denied"
	}
	_, code, _ := statusFor(err)
	return code
}
