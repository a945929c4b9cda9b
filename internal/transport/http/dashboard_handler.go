package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"aqdash/internal/dataset"
	apierrors "aqdash/internal/errors"
	"aqdash/internal/exporter"
	"aqdash/internal/infrastructure"
	"aqdash/internal/middleware"
	"aqdash/internal/services"
)

// Notifier pushes refresh notifications to connected clients. The
// websocket hub satisfies it.
type Notifier interface {
	BroadcastDataUpdate(datasets []string)
}

// DashboardHandler serves the dashboard API: selector options, chart data,
// funding summaries, exports, and the reload trigger.
type DashboardHandler struct {
	service      *services.DashboardService
	store        *services.Store
	exporter     *exporter.Exporter
	notifier     Notifier
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	query        *middleware.QueryParamValidator
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(
	service *services.DashboardService,
	store *services.Store,
	exp *exporter.Exporter,
	notifier Notifier,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		store:        store,
		exporter:     exp,
		notifier:     notifier,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/cities", h.GetCities)
	r.Get("/cities/{cbsa}/trends", h.GetCityTrends)

	r.Get("/counties", h.GetCounties)
	r.Get("/counties/{county}/pollutants", h.GetCountyPollutants)
	r.Get("/counties/{county}/series", h.GetCountySeries)

	r.Get("/applications/states", h.GetApplicationStates)
	r.Get("/applications", h.GetApplications)

	r.Get("/awards/regions", h.GetAwardRegions)
	r.Get("/awards", h.GetAwards)

	r.Get("/budget", h.GetBudget)

	r.Get("/export/{dataset}", h.ExportDataset)
	r.Post("/reload", h.Reload)

	return r
}

// GetCities handles GET /api/dashboard/cities
func (h *DashboardHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.CityOptions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
		"count":  len(options),
	})
}

// GetCityTrends handles GET /api/dashboard/cities/{cbsa}/trends
func (h *DashboardHandler) GetCityTrends(w http.ResponseWriter, r *http.Request) {
	cbsa := chi.URLParam(r, "cbsa")

	name, series, err := h.service.CityTrends(r.Context(), cbsa)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"cbsa":   cbsa,
			"name":   name,
			"series": series,
		},
	})
}

// GetCounties handles GET /api/dashboard/counties
func (h *DashboardHandler) GetCounties(w http.ResponseWriter, r *http.Request) {
	counties, err := h.service.CountyOptions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   counties,
		"count":  len(counties),
	})
}

// GetCountyPollutants handles GET /api/dashboard/counties/{county}/pollutants
func (h *DashboardHandler) GetCountyPollutants(w http.ResponseWriter, r *http.Request) {
	county := chi.URLParam(r, "county")

	pollutants, err := h.service.CountyPollutants(r.Context(), county)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   pollutants,
		"count":  len(pollutants),
	})
}

// GetCountySeries handles GET /api/dashboard/counties/{county}/series.
// Too few readings is not an error: the response is a 200 no-data body the
// frontend renders as a message instead of a chart.
func (h *DashboardHandler) GetCountySeries(w http.ResponseWriter, r *http.Request) {
	county := chi.URLParam(r, "county")

	pollutant, ok := h.query.ValidateRequired(w, r, "pollutant")
	if !ok {
		return
	}

	chart, err := h.service.CountySeries(r.Context(), county, pollutant)
	if err != nil {
		if errors.Is(err, dataset.ErrInsufficientData) {
			render.JSON(w, r, map[string]interface{}{
				"status":  "no_data",
				"message": fmt.Sprintf("Not enough readings of %s in %s to draw a trend", pollutant, county),
			})
			return
		}
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
	})
}

// GetApplicationStates handles GET /api/dashboard/applications/states
func (h *DashboardHandler) GetApplicationStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.service.ApplicationStates(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   states,
		"count":  len(states),
	})
}

// GetApplications handles GET /api/dashboard/applications?state=
func (h *DashboardHandler) GetApplications(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")

	rows, summary, err := h.service.Applications(r.Context(), state)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"state":        state,
			"applications": rows,
			"summary":      summary,
		},
	})
}

// GetAwardRegions handles GET /api/dashboard/awards/regions
func (h *DashboardHandler) GetAwardRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.AwardRegions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   regions,
		"count":  len(regions),
	})
}

// GetAwards handles GET /api/dashboard/awards?region=
func (h *DashboardHandler) GetAwards(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	rows, summary, err := h.service.Awards(r.Context(), region)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"region":  region,
			"awards":  rows,
			"summary": summary,
		},
	})
}

// GetBudget handles GET /api/dashboard/budget
func (h *DashboardHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	lines, chart, err := h.service.Budget(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"lines": lines,
			"chart": chart,
		},
	})
}

// ExportDataset handles GET /api/dashboard/export/{dataset}?format=csv|xlsx.
// The funding tables accept an optional state= or region= filter.
func (h *DashboardHandler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")

	format, ok := h.query.ValidateEnum(w, r, "format", []string{"csv", "xlsx"}, "csv")
	if !ok {
		return
	}
	state := r.URL.Query().Get("state")
	region := r.URL.Query().Get("region")

	table, err := h.service.FilteredTable(r.Context(), name, state, region)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := exporter.FileName(name, format)
	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	start := time.Now()
	if format == "xlsx" {
		err = h.exporter.WriteXLSX(w, table)
	} else {
		err = h.exporter.WriteCSV(w, table)
	}
	if err != nil {
		// Headers are already on the wire, all we can do is log
		h.logger.ErrorContext(r.Context(), "export write failed",
			slog.String("dataset", name),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		return
	}

	metrics := middleware.GetDashboardMetricsFromContext(r.Context())
	infrastructure.RecordExport(r.Context(), metrics, name, format, time.Since(start))

	h.logger.InfoContext(r.Context(), "dataset exported",
		slog.String("dataset", name),
		slog.String("format", format),
		slog.Int("rows", table.Len()),
	)
}

// Reload handles POST /api/dashboard/reload: it re-runs load+clean for
// every dataset, swaps the snapshot, and notifies WebSocket clients.
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reload requested")

	if err := h.store.Reload(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	status := h.store.Status()
	if h.notifier != nil {
		names := make([]string, 0, len(status))
		for name, ds := range status {
			if ds.Loaded {
				names = append(names, name)
			}
		}
		h.notifier.BroadcastDataUpdate(names)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// handleServiceError maps service-level errors onto API errors before the
// central handler renders them.
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownDataset):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"DATASET_NOT_FOUND",
			err.Error(),
		))
	case errors.Is(err, services.ErrUnknownSelection):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"UNKNOWN_SELECTION",
			err.Error(),
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
