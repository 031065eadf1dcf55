package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"datalens/internal/board"
	"datalens/internal/charts"
	apierrors "datalens/internal/errors"
	"datalens/internal/filters"
)

// BoardHandler handles dashboard HTTP requests
type BoardHandler struct {
	service  BoardService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(service BoardService, logger *slog.Logger) *BoardHandler {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &BoardHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "board_handler")),
		validate: v,
	}
}

// Routes returns the board routes
func (h *BoardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/columns", h.GetColumns)
	r.Get("/table", h.GetTable)
	r.Get("/plot", h.GetPlot)
	r.Get("/export", h.Export)

	r.Route("/filters", func(r chi.Router) {
		r.Get("/", h.GetFilters)
		r.Post("/", h.AddFilter)
		r.Route("/{column}", func(r chi.Router) {
			r.Use(h.ColumnCtx)
			r.Put("/", h.UpdateFilter)
			r.Delete("/", h.RemoveFilter)
		})
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateSettings)
	})

	return r
}

// ColumnCtx middleware validates the column URL parameter
func (h *BoardHandler) ColumnCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		column := chi.URLParam(r, "column")
		if column == "" {
			apierrors.WriteError(w, apierrors.ErrValidation("column", "Column name is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetColumns handles GET /api/board/columns
func (h *BoardHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	columns := h.service.Columns(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   columns,
		"count":  len(columns),
	})
}

// GetTable handles GET /api/board/table?page=&page_size=
func (h *BoardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)

	if pageSize > 500 {
		apierrors.WriteError(w, apierrors.ErrValidation("page_size", "page_size must be at most 500"))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.TablePage(r.Context(), page, pageSize),
	})
}

// GetPlot handles GET /api/board/plot
func (h *BoardHandler) GetPlot(w http.ResponseWriter, r *http.Request) {
	chart := h.service.Plot(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    chart,
		"version": h.service.Version(r.Context()),
	})
}

// GetFilters handles GET /api/board/filters
func (h *BoardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	views := h.service.ActiveFilters(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   views,
		"count":  len(views),
	})
}

// AddFilterRequest is the payload for POST /api/board/filters
type AddFilterRequest struct {
	Column string `json:"column" validate:"required"`
}

// AddFilter handles POST /api/board/filters
func (h *BoardHandler) AddFilter(w http.ResponseWriter, r *http.Request) {
	var req AddFilterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		apierrors.WriteError(w, validationError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "adding filter", slog.String("column", req.Column))

	if err := h.service.AddFilter(r.Context(), req.Column); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.ActiveFilters(r.Context()),
	})
}

// UpdateFilter handles PUT /api/board/filters/{column}
func (h *BoardHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")

	var req board.FilterUpdate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "updating filter", slog.String("column", column))

	if err := h.service.UpdateFilter(r.Context(), column, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.ActiveFilters(r.Context()),
	})
}

// RemoveFilter handles DELETE /api/board/filters/{column}
func (h *BoardHandler) RemoveFilter(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")

	h.logger.InfoContext(r.Context(), "removing filter", slog.String("column", column))

	if err := h.service.RemoveFilter(r.Context(), column); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}

// GetSettings handles GET /api/board/settings
func (h *BoardHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"settings": h.service.Settings(r.Context()),
			"options":  h.service.AxisOptions(r.Context()),
			"palettes": charts.Palettes,
		},
	})
}

// UpdateSettings handles PUT /api/board/settings
func (h *BoardHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch charts.SettingsPatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&patch); err != nil {
		apierrors.WriteError(w, validationError(err))
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   settings,
	})
}

// Export handles GET /api/board/export
func (h *BoardHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("datalens_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.service.ExportXLSX(r.Context(), w); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed", slog.String("error", err.Error()))
		// Headers may already be gone; best effort
		apierrors.WriteError(w, apierrors.ErrExportFailed)
	}
}

// writeServiceError maps domain errors to API errors
func (h *BoardHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, filters.ErrUnknownColumn):
		apierrors.WriteError(w, apierrors.ErrColumnNotFound)
	case errors.Is(err, filters.ErrNoFilter):
		apierrors.WriteError(w, apierrors.ErrFilterNotFound)
	case errors.Is(err, filters.ErrInvalidRange):
		apierrors.WriteError(w, apierrors.ErrValidation("low", "range bounds must be non-decreasing"))
	case errors.Is(err, filters.ErrKindMismatch), errors.Is(err, board.ErrValueRequired):
		apierrors.WriteError(w, apierrors.ErrValidation("value", err.Error()))
	case errors.Is(err, charts.ErrUnknownPalette):
		apierrors.WriteError(w, apierrors.ErrValidation("color_palette", err.Error()))
	default:
		h.logger.ErrorContext(r.Context(), "unexpected service error", slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.ErrInternalServer)
	}
}

// validationError converts validator errors to a single APIError
func validationError(err error) *apierrors.APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apierrors.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q validation", fe.Tag()),
			})
		}
		return apierrors.NewValidationErrors(fields)
	}
	return apierrors.InvalidRequestWithError(err)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
