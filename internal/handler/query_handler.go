package handler

import (
	"net/http"
	"strings"

	"gaokao/internal/entity"
	"gaokao/internal/probability"
	"gaokao/internal/service"
)

type QueryHandler struct {
	base
	search *service.SearchService
}

func NewQueryHandler(b base, search *service.SearchService) *QueryHandler {
	return &QueryHandler{base: b, search: search}
}

// Query поиск. Параметры принимаются и из строки запроса, и из формы.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := service.SearchQuery{
		Score:       atoi(strings.TrimSpace(r.FormValue("score"))),
		College:     strings.TrimSpace(r.FormValue("college")),
		Major:       strings.TrimSpace(r.FormValue("major")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Requirement: strings.TrimSpace(r.FormValue("requirement")),
	}

	records, err := h.search.Search(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "query.html", map[string]any{
		"Title":      "志愿查询",
		"Query":      q,
		"Categories": entity.Categories,
		"Records":    records,
		"Capped":     len(records) >= service.SearchLimit,
		"Limit":      service.SearchLimit,
	})
}

func (h *QueryHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	q := service.AnalysisQuery{
		Score:    atoi(strings.TrimSpace(r.FormValue("score"))),
		College:  strings.TrimSpace(r.FormValue("college")),
		Major:    strings.TrimSpace(r.FormValue("major")),
		Category: strings.TrimSpace(r.FormValue("category")),
	}

	points, err := h.search.Analyze(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	labels := make([]string, 0, len(points))
	values := make([]int, 0, len(points))
	colors := make([]string, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.College+" · "+p.Major)
		values = append(values, p.Probability)
		colors = append(colors, probability.ChartColor(p.Probability))
	}

	h.render(w, r, http.StatusOK, "analysis.html", map[string]any{
		"Title":      "智能分析报告",
		"Query":      q,
		"Categories": entity.Categories,
		"Points":     points,
		"Labels":     labels,
		"Values":     values,
		"Colors":     colors,
		"Window":     service.AnalysisWindow,
		"Top":        service.AnalysisTop,
	})
}
