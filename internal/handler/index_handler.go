package handler

import (
	"net/http"
)

type IndexHandler struct {
	base
}

func NewIndexHandler(b base) *IndexHandler {
	return &IndexHandler{base: b}
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", nil)
}

// NotFound для путей, которых нет в маршрутах
func (h *IndexHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r, "页面不存在")
}
