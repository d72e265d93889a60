package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bellebook/catalog/internal/domain"
	"github.com/bellebook/catalog/internal/filter"
)

// CatalogInterface defines the catalog service methods
type CatalogInterface interface {
	List(ctx context.Context, criteria domain.Criteria) ([]domain.Service, error)
	ListByOwner(ctx context.Context, owner string, opts filter.OwnerOptions) ([]domain.Service, error)
	Categories(ctx context.Context, limit int) ([]string, error)
	Stats(ctx context.Context) (*domain.CatalogStats, error)
	AvailableColumns() []string
	ExportCSV(ctx context.Context, w io.Writer, columns []string) error
	ExportJSON(ctx context.Context, w io.Writer) error
	ExportXLSX(ctx context.Context, w io.Writer, columns []string) error
}

// ServiceHandler handles listing-related HTTP requests
type ServiceHandler struct {
	catalog CatalogInterface
}

// downloadTimeout is the timeout for export operations
const downloadTimeout = 5 * time.Minute

// NewServiceHandler creates a new ServiceHandler
func NewServiceHandler(catalog CatalogInterface) *ServiceHandler {
	return &ServiceHandler{catalog: catalog}
}

// List handles GET /api/v1/services
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}

	services, err := h.catalog.List(r.Context(), criteria)
	if err != nil {
		RenderError(w, http.StatusServiceUnavailable, "Listing temporarily unavailable")
		return
	}

	RenderJSON(w, http.StatusOK, ListResponse{Data: services, Count: len(services)})
}

// ListByOwner handles GET /api/v1/services/owner/{id}
func (h *ServiceHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	owner := domain.NormalizeID(r.PathValue("id"))
	if owner == "" {
		RenderError(w, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	opts := filter.OwnerOptions{
		Verbose:       boolParam(r, "verbose"),
		FallbackToAll: r.URL.Query().Get("fallback") == "all",
	}

	services, err := h.catalog.ListByOwner(r.Context(), owner, opts)
	if err != nil {
		RenderError(w, http.StatusServiceUnavailable, "Listing temporarily unavailable")
		return
	}

	RenderJSON(w, http.StatusOK, ListResponse{Data: services, Count: len(services)})
}

// Categories handles GET /api/v1/categories
func (h *ServiceHandler) Categories(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			RenderError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	categories, err := h.catalog.Categories(r.Context(), limit)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	if categories == nil {
		categories = []string{}
	}

	RenderJSON(w, http.StatusOK, categories)
}

// GetStats handles GET /api/v1/stats
func (h *ServiceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	RenderJSON(w, http.StatusOK, stats)
}

// Download handles GET /api/v1/services/download
func (h *ServiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	columns, err := h.parseColumns(r)
	if err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), downloadTimeout)
	defer cancel()

	stamp := time.Now().UTC().Format("2006-01-02")

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=services-"+stamp+".json")
		err = h.catalog.ExportJSON(ctx, w)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=services-"+stamp+".csv")
		err = h.catalog.ExportCSV(ctx, w, columns)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename=services-"+stamp+".xlsx")
		err = h.catalog.ExportXLSX(ctx, w, columns)
	default:
		RenderError(w, http.StatusBadRequest, "Invalid format. Use 'json', 'csv', or 'xlsx'")
		return
	}

	if err != nil {
		// headers are already out, nothing left to do but drop the connection
		panic(http.ErrAbortHandler)
	}
}

func (h *ServiceHandler) parseColumns(r *http.Request) ([]string, error) {
	raw := r.URL.Query().Get("columns")
	if raw == "" {
		return nil, nil
	}

	available := map[string]bool{}
	for _, col := range h.catalog.AvailableColumns() {
		available[col] = true
	}

	columns := splitCSV([]string{raw})
	for _, col := range columns {
		if !available[col] {
			return nil, &columnError{col}
		}
	}

	return columns, nil
}

type columnError struct {
	column string
}

func (e *columnError) Error() string {
	return "Unknown column: " + e.column
}

func parseCriteria(r *http.Request) (domain.Criteria, error) {
	q := r.URL.Query()

	criteria := domain.Criteria{
		Search:        strings.TrimSpace(q.Get("search")),
		Location:      strings.TrimSpace(q.Get("location")),
		Categories:    splitCSV(q["category"]),
		Subcategories: splitCSV(q["subcategory"]),
		MobileOnly:    boolParam(r, "mobile_only"),
		Sort:          domain.ParseSortKey(q.Get("sort")),
	}

	var err error
	if criteria.MinPrice, err = priceParam(q.Get("min_price")); err != nil {
		return domain.Criteria{}, err
	}
	if criteria.MaxPrice, err = priceParam(q.Get("max_price")); err != nil {
		return domain.Criteria{}, err
	}

	return criteria, nil
}

// splitCSV flattens repeated query params and comma-separated values into one
// list, dropping empties.
func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func priceParam(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, &priceError{v}
	}

	return &f, nil
}

type priceError struct {
	value string
}

func (e *priceError) Error() string {
	return "Invalid price bound: " + e.value
}

func boolParam(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
