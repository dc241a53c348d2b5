package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/bockybocky/charles-bond-sniper/internal/dataprocessing"
	apierrors "github.com/bockybocky/charles-bond-sniper/internal/errors"
	custommiddleware "github.com/bockybocky/charles-bond-sniper/internal/middleware"
	"github.com/bockybocky/charles-bond-sniper/internal/services"
	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// Multipart field names for the two uploads.
const (
	fieldHoldings   = "holdings"
	fieldIssueDates = "issue_dates"
)

// scanParams holds the per-request parameter overrides from the form.
type scanParams struct {
	DangerThreshold *float64 `validate:"omitempty,gt=0,lt=1000"`
	RocketThreshold *float64 `validate:"omitempty,gt=0,lt=1000"`
	CouponSensitive *bool
	WindowStart     *time.Time
	WindowEnd       *time.Time
}

// ScanHandler handles scan upload requests.
type ScanHandler struct {
	service      ScanServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	maxBytes     int64
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(service ScanServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxBytes int64) *ScanHandler {
	return &ScanHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "scan_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		maxBytes:     maxBytes,
	}
}

// Routes returns the scan routes.
func (h *ScanHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Scan)
	return r
}

// Scan handles POST /api/scan: a multipart upload of the holdings export
// plus an optional issue-date reference file, with optional threshold and
// window overrides as ordinary form values.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrFileTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest.WithDetails(err.Error()))
		return
	}

	primary, err := readUpload(r, fieldHoldings)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		return
	}
	secondary, _ := readUpload(r, fieldIssueDates)

	params, apiErr := h.parseParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	opts, err := h.service.Options(services.ScanOverrides{
		DangerThreshold: params.DangerThreshold,
		RocketThreshold: params.RocketThreshold,
		CouponSensitive: params.CouponSensitive,
		WindowStart:     params.WindowStart,
		WindowEnd:       params.WindowEnd,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "scan requested",
		slog.String("request_id", custommiddleware.GetReqID(r.Context())),
		slog.Int("holdings_bytes", len(primary)),
		slog.Int("issue_dates_bytes", len(secondary)),
		slog.Float64("danger_threshold", opts.DangerThreshold),
		slog.Float64("rocket_threshold", opts.RocketThreshold),
		slog.Bool("coupon_sensitive", opts.CouponSensitive),
	)

	started := time.Now()
	result, err := h.service.Scan(r.Context(), primary, secondary, opts)
	scanDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		h.errorHandler.HandleError(w, r, pipelineError(err, result))
		return
	}
	scansTotal.WithLabelValues("ok").Inc()

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"distressed": result.Distressed,
			"high_value": result.HighValue,
			"filtered":   result.Filtered,
		},
		"diagnostics": result.Diagnostics,
	})
}

// pipelineError maps the pipeline's failure taxonomy onto the API error
// vocabulary, attaching the diagnostics collected before the failure so the
// client can render the specific reason.
func pipelineError(err error, result *domain.ScanResult) error {
	var details interface{}
	if result != nil {
		details = result.Diagnostics
	}

	switch {
	case errors.Is(err, dataprocessing.ErrDecodeFailed):
		return apierrors.ErrDecodeFailed.WithDetails(details)
	case errors.Is(err, dataprocessing.ErrHeaderNotFound):
		return apierrors.ErrHeaderNotFound.WithDetails(details)
	case errors.Is(err, dataprocessing.ErrTableParse):
		return apierrors.ErrTableParse.WithDetails(err.Error())
	case errors.Is(err, dataprocessing.ErrMissingFields):
		return apierrors.ErrMissingColumns.WithDetails(details)
	default:
		return err
	}
}

// readUpload extracts one uploaded file's bytes from the parsed form.
func readUpload(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// parseParams reads and validates the optional override parameters.
func (h *ScanHandler) parseParams(r *http.Request) (*scanParams, *apierrors.APIError) {
	params := &scanParams{}

	if v := r.FormValue("danger_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, apierrors.ErrValidation("danger_threshold", "must be a number")
		}
		params.DangerThreshold = &f
	}
	if v := r.FormValue("rocket_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, apierrors.ErrValidation("rocket_threshold", "must be a number")
		}
		params.RocketThreshold = &f
	}
	if v := r.FormValue("coupon_sensitive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apierrors.ErrValidation("coupon_sensitive", "must be a boolean")
		}
		params.CouponSensitive = &b
	}
	if v := r.FormValue("window_start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, apierrors.ErrValidation("window_start", "must be a YYYY-MM-DD date")
		}
		params.WindowStart = &t
	}
	if v := r.FormValue("window_end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, apierrors.ErrValidation("window_end", "must be a YYYY-MM-DD date")
		}
		params.WindowEnd = &t
	}

	if err := h.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, apierrors.ErrValidation(verrs[0].Field(), "out of range")
		}
		return nil, apierrors.ErrInvalidRequest
	}
	if params.DangerThreshold != nil && params.RocketThreshold != nil &&
		*params.RocketThreshold <= *params.DangerThreshold {
		return nil, apierrors.ErrValidation("rocket_threshold", "must exceed danger_threshold")
	}
	if params.WindowStart != nil && params.WindowEnd != nil &&
		params.WindowEnd.Before(*params.WindowStart) {
		return nil, apierrors.ErrValidation("window_end", "must not precede window_start")
	}

	return params, nil
}
