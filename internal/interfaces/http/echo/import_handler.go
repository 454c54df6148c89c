package echo

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	app "github.com/mohammadpnp/parts-import/internal/application/inventory"
	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

const DefaultMaxUploadBytes int64 = 50 << 20

var allowedMimeTypes = map[string]bool{
	"text/csv":                 true,
	"text/plain":               true,
	"application/vnd.ms-excel": true,
	"application/csv":          true,
}

type ImportHandler struct {
	submit   app.SubmitImport
	status   app.GetImportStatus
	maxBytes int64
	logger   *zap.Logger
}

func NewImportHandler(submit app.SubmitImport, status app.GetImportStatus, maxBytes int64, logger *zap.Logger) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{submit: submit, status: status, maxBytes: maxBytes, logger: logger}
}

func (h *ImportHandler) SubmitInventoryImport(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "missing_file", "multipart field 'file' is required")
	}

	mimeType := mediaType(fh.Header.Get(echo.HeaderContentType))
	if !allowedMimeTypes[mimeType] {
		return respondError(c, http.StatusBadRequest, "invalid_file_type", "file must be a CSV document")
	}
	if fh.Size > h.maxBytes {
		return respondError(c, http.StatusBadRequest, "file_too_large",
			"file exceeds the upload limit of "+strconv.FormatInt(h.maxBytes>>20, 10)+"MB")
	}

	opts, err := parseOptions(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_options", err.Error())
	}

	src, err := fh.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, "unreadable_file", "uploaded file could not be read")
	}
	defer src.Close()

	out, err := h.submit.Execute(c.Request().Context(), app.SubmitImportInput{
		File:        src,
		FileName:    fh.Filename,
		Size:        fh.Size,
		MimeType:    mimeType,
		Options:     opts,
		SubmittedBy: c.Request().Header.Get("X-User-ID"),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidOptions):
			return respondError(c, http.StatusBadRequest, "invalid_options", err.Error())
		case errors.Is(err, app.ErrMissingImportFile):
			return respondError(c, http.StatusBadRequest, "missing_file", "multipart field 'file' is required")
		}
		h.logger.Error("submit import failed", zap.String("file", fh.Filename), zap.Error(err))
		return respondError(c, http.StatusInternalServerError, "internal_error", "failed to enqueue import job")
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) GetImportStatus(c echo.Context) error {
	snapshot, err := h.status.Execute(c.Request().Context(), app.GetImportStatusInput{JobID: c.Param("id")})
	if err != nil {
		if errors.Is(err, app.ErrInvalidJobID) {
			return respondError(c, http.StatusBadRequest, "invalid_job_id", "id must be a valid UUID")
		}
		if errors.Is(err, app.ErrImportJobNotFound) {
			return respondError(c, http.StatusNotFound, "not_found", "import job not found")
		}
		h.logger.Error("get import status failed", zap.String("job_id", c.Param("id")), zap.Error(err))
		return respondError(c, http.StatusInternalServerError, "internal_error", "failed to get import status")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: snapshot})
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return mt
}

// parseOptions overlays form fields on the default processing options.
func parseOptions(c echo.Context) (domain.ProcessingOptions, error) {
	opts := domain.DefaultProcessingOptions()

	if v := c.FormValue("validation_mode"); v != "" {
		opts.ValidationMode = domain.ValidationMode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := c.FormValue("batch_size"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return opts, errors.New("batch_size must be an integer")
		}
		opts.BatchSize = n
	}
	if v := c.FormValue("notify_email"); v != "" {
		opts.NotifyEmail = strings.TrimSpace(v)
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"update_existing", &opts.UpdateExisting},
		{"skip_duplicates", &opts.SkipDuplicates},
		{"rollback_on_error", &opts.RollbackOnError},
		{"email_notification", &opts.EmailNotification},
	}
	for _, f := range flags {
		v := c.FormValue(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return opts, errors.New(f.name + " must be a boolean")
		}
		*f.dst = b
	}
	return opts, nil
}
