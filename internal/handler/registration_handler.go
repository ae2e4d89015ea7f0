package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gaokao/internal/service"
)

type RegistrationHandler struct {
	base
	accounts *service.AccountService
}

func NewRegistrationHandler(b base, accounts *service.AccountService) *RegistrationHandler {
	return &RegistrationHandler{base: b, accounts: accounts}
}

func (h *RegistrationHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", map[string]any{"Title": "注册"})
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "表单解析失败", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	data := map[string]any{
		"Title": "注册",
		"Form":  map[string]string{"username": username},
	}

	user, err := h.accounts.Register(r.Context(), username, password)
	switch {
	case err == nil:
		zap.L().Info("user registered", zap.String("username", user.Username))
		data["Registered"] = true
		h.render(w, r, http.StatusOK, "register.html", data)
	case errors.Is(err, service.ErrDuplicateUsername):
		data["Error"] = "用户名已存在"
		h.render(w, r, http.StatusConflict, "register.html", data)
	case fieldErrors(err) != nil:
		data["Fields"] = fieldErrors(err)
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", data)
	default:
		h.fail(w, r, err)
	}
}
