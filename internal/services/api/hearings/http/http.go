// Package http provides http transport for hearings
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"causelist/internal/modkit/httpkit"
	"causelist/internal/services/api/hearings/domain"
	svc "causelist/internal/services/api/hearings/service"
)

// Register mounts hearings endpoints on the given router
func Register(r httpkit.Router, s *svc.Service) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/dates", h.dates)
	httpkit.Get(r, "/{id}", h.byID)
}

type handlers struct{ svc *svc.Service }

// @Summary List hearings with filters and paging
// @Tags Hearings
// @Produce json
// @Param limit query int false "Page size, max 100"
// @Param offset query int false "Page offset"
// @Param date query string false "Exact list date YYYY-MM-DD"
// @Param dateFrom query string false "Inclusive lower list date"
// @Param dateTo query string false "Inclusive upper list date"
// @Param caseNumber query string false "Case number substring"
// @Param division query string false "Criminal or Civil"
// @Param search query string false "Full text search"
// @Success 200 {object} domain.ListResult "ok"
// @Router /hearings [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	in := domain.ListInput{
		Date:       q.Get("date"),
		DateFrom:   q.Get("dateFrom"),
		DateTo:     q.Get("dateTo"),
		CaseNumber: q.Get("caseNumber"),
		Division:   q.Get("division"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.Offset = n
		}
	}
	return h.svc.List(r.Context(), in)
}

// @Summary Fetch one hearing by id
// @Tags Hearings
// @Produce json
// @Param id path string true "Hearing id"
// @Success 200 {object} domain.Hearing "ok"
// @Router /hearings/{id} [get]
func (h *handlers) byID(r *stdhttp.Request) (any, error) {
	return h.svc.ByID(r.Context(), chi.URLParam(r, "id"))
}

// @Summary Distinct archived list dates with counts
// @Tags Hearings
// @Produce json
// @Success 200 {array} domain.DateCount "ok"
// @Router /hearings/dates [get]
func (h *handlers) dates(r *stdhttp.Request) (any, error) {
	return h.svc.Dates(r.Context())
}
