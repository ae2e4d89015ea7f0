package handler

import (
	"errors"
	"net/http"
	"strings"

	"gaokao/internal/service"
)

type CatalogHandler struct {
	base
	catalog *service.CatalogService
}

func NewCatalogHandler(b base, catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{base: b, catalog: catalog}
}

func (h *CatalogHandler) Colleges(w http.ResponseWriter, r *http.Request) {
	kw := strings.TrimSpace(r.URL.Query().Get("search"))
	rows, err := h.catalog.Colleges(r.Context(), kw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "colleges.html", map[string]any{
		"Title":    "院校库",
		"Search":   kw,
		"Colleges": rows,
	})
}

func (h *CatalogHandler) Majors(w http.ResponseWriter, r *http.Request) {
	kw := strings.TrimSpace(r.URL.Query().Get("search"))
	rows, err := h.catalog.Majors(r.Context(), kw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "majors.html", map[string]any{
		"Title":  "专业库",
		"Search": kw,
		"Majors": rows,
	})
}

func (h *CatalogHandler) College(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	detail, err := h.catalog.College(r.Context(), name)
	if errors.Is(err, service.ErrNotFound) {
		h.notFound(w, r, "未找到院校："+name)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "college.html", map[string]any{
		"Title":   detail.Name,
		"College": detail,
	})
}

func (h *CatalogHandler) Major(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	detail, err := h.catalog.Major(r.Context(), name)
	if errors.Is(err, service.ErrNotFound) {
		h.notFound(w, r, "未找到专业："+name)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "major.html", map[string]any{
		"Title": detail.Name,
		"Major": detail,
	})
}
