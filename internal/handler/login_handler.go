package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"gaokao/internal/entity"
	"gaokao/internal/middleware"
	"gaokao/internal/service"
)

type LoginHandler struct {
	base
	accounts *service.AccountService
}

func NewLoginHandler(b base, accounts *service.AccountService) *LoginHandler {
	return &LoginHandler{base: b, accounts: accounts}
}

func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.ActorFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, "/query", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, false, "", "")
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false, h.accounts.Authenticate, "/query")
}

func (h *LoginHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.ActorFrom(r.Context()).IsAdmin() {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, true, "", "")
}

func (h *LoginHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true, h.accounts.AuthenticateAdmin, "/admin/dashboard")
}

type authenticateFunc func(ctx context.Context, username, password string) (*entity.User, error)

func (h *LoginHandler) login(w http.ResponseWriter, r *http.Request, admin bool, auth authenticateFunc, next string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "表单解析失败", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.renderLogin(w, r, http.StatusBadRequest, admin, username, "请输入用户名和密码")
		return
	}

	user, err := auth(r.Context(), username, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		zap.L().Info("login failed", zap.String("username", username), zap.Bool("admin", admin))
		msg := "账号或密码错误"
		if admin {
			msg = "管理员账号或密码错误"
		}
		h.renderLogin(w, r, http.StatusUnauthorized, admin, username, msg)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Login(w, r, user); err != nil {
		h.fail(w, r, err)
		return
	}
	zap.L().Info("login", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *LoginHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, admin bool, username, errMsg string) {
	data := map[string]any{
		"Title":  "登录",
		"Action": "/login",
		"Admin":  admin,
		"Error":  errMsg,
		"Form":   map[string]string{"username": username},
	}
	if admin {
		data["Title"] = "管理员登录"
		data["Action"] = "/admin/login"
	}
	h.render(w, r, status, "login.html", data)
}
