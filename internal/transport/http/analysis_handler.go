package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "cellpeak/internal/errors"
	"cellpeak/internal/infrastructure"
	"cellpeak/internal/ingest"
	mw "cellpeak/internal/middleware"
	"cellpeak/internal/services"
	"cellpeak/pkg/contracts/domain"
)

// Query parameters of the analyze endpoint
const (
	ParamWindow      = "window"
	ParamThreshold   = "threshold"
	ParamExcludeZero = "exclude_zero"
	ParamUnit        = "unit"
	ParamTrimBy      = "trim_criteria"

	// FormFileField is the multipart field carrying the recording
	FormFileField = "file"

	maxWindowOrder = 10000
)

// AnalysisHandler handles recording uploads
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *mw.QueryParamValidator
	maxMemory    int64
}

// NewAnalysisHandler creates the handler. maxMemory bounds the part of a
// multipart upload kept in memory.
func NewAnalysisHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxMemory int64) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		logger:       infrastructure.WithComponent(logger, "analysis_handler"),
		errorHandler: errorHandler,
		params:       mw.NewQueryParamValidator(logger, errorHandler),
		maxMemory:    maxMemory,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(mw.ContentTypeValidator("text/csv", "text/plain", "application/csv", "multipart/form-data")).
		Post("/analyze", h.Analyze)
	return r
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overrides, ok := h.overrides(w, r)
	if !ok {
		return
	}

	src, name, format, closeFn, err := h.upload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer closeFn()

	h.logger.InfoContext(ctx, "analysis requested",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("source", name),
		slog.String("format", format),
	)

	result, err := h.service.Analyze(ctx, name, src, format, overrides)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func (h *AnalysisHandler) overrides(w http.ResponseWriter, r *http.Request) (services.Overrides, bool) {
	var o services.Overrides
	q := r.URL.Query()

	if q.Get(ParamWindow) != "" {
		window, ok := h.params.ValidateInt(w, r, ParamWindow, 1, maxWindowOrder, 0)
		if !ok {
			return o, false
		}
		o.WindowOrder = &window
	}

	threshold, ok := h.params.ValidateOptionalFloat(w, r, ParamThreshold, nil)
	if !ok {
		return o, false
	}
	o.Threshold = threshold

	if q.Get(ParamExcludeZero) != "" {
		exclude, ok := h.params.ValidateBool(w, r, ParamExcludeZero, false)
		if !ok {
			return o, false
		}
		o.ExcludeZeroNumeric = &exclude
	}

	units := make([]string, len(domain.SupportedTimeUnits))
	for i, u := range domain.SupportedTimeUnits {
		units[i] = string(u)
	}
	unit, ok := h.params.ValidateEnum(w, r, ParamUnit, units, "")
	if !ok {
		return o, false
	}
	if unit != "" {
		u := domain.TimeUnit(unit)
		o.TimeUnit = &u
	}

	criteria, ok := h.params.ValidateEnum(w, r, ParamTrimBy,
		[]string{string(domain.TrimBySamples), string(domain.TrimByTime)}, "")
	if !ok {
		return o, false
	}
	if criteria != "" {
		c := domain.TrimCriteria(criteria)
		o.TrimCriteria = &c
	}
	return o, true
}

// upload locates the recording in the request: the multipart "file" part,
// or the raw body as CSV.
func (h *AnalysisHandler) upload(r *http.Request) (io.Reader, string, string, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "upload", ingest.FormatCSV, func() {}, nil
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		return nil, "", "", nil, apierrors.InvalidRequestWithError(err)
	}
	file, header, err := r.FormFile(FormFileField)
	if err != nil {
		return nil, "", "", nil, apierrors.ErrValidation(FormFileField, "multipart field \"file\" is required")
	}

	format := ingest.FormatOf(header.Filename)
	if format == "" {
		file.Close()
		return nil, "", "", nil, apierrors.NewAppError(apierrors.ErrTypeParsing,
			"unsupported file type "+filepath.Ext(header.Filename)+", expected .csv or .xlsx", nil)
	}

	name := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	return file, name, format, func() { file.Close() }, nil
}

func (h *AnalysisHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"Request body exceeds maximum allowed size", map[string]interface{}{"max_size": tooLarge.Limit})
	}
	h.errorHandler.HandleError(w, r, err)
}
