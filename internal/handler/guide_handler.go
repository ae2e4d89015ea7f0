package handler

import (
	"net/http"
	"strings"

	"gaokao/internal/service"
)

type GuideHandler struct {
	base
	guides *service.GuideService
}

func NewGuideHandler(b base, guides *service.GuideService) *GuideHandler {
	return &GuideHandler{base: b, guides: guides}
}

func (h *GuideHandler) Guide(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, service.GuideFilling, "填报指南", "暂无填报指南")
}

func (h *GuideHandler) Skill(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, service.GuideTips, "志愿填报技巧", "暂无志愿技巧")
}

func (h *GuideHandler) show(w http.ResponseWriter, r *http.Request, kind service.GuideKind, title, missing string) {
	text, ok, err := h.guides.Read(kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	h.render(w, r, http.StatusOK, "guide.html", map[string]any{
		"Title":   title,
		"Found":   ok,
		"Missing": missing,
		"Lines":   strings.Split(text, "\n"),
	})
}
