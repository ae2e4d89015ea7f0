package handler

import (
	"net/http"

	"go.uber.org/zap"

	"gaokao/internal/middleware"
)

func LogoutHandler(sessions *middleware.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Logout(w, r); err != nil {
			zap.L().Warn("logout failed", zap.Error(err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
