package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gaokao/internal/entity"
	"gaokao/internal/service"
)

type ctxKeyActor struct{}

// UserSource актуальные данные пользователя по id из сессии.
type UserSource interface {
	Current(ctx context.Context, id int) (*entity.User, error)
}

// WithActor достаёт пользователя из сессии, сверяет его с базой и кладёт в контекст запроса.
// Удалённый пользователь становится анонимом, роль берётся из базы, а не из cookie.
func WithActor(s *Sessions, users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := s.Actor(r)
			if actor.Authenticated() && users != nil {
				actor = refresh(r, users, actor)
			}
			ctx := context.WithValue(r.Context(), ctxKeyActor{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func refresh(r *http.Request, users UserSource, actor service.Actor) service.Actor {
	u, err := users.Current(r.Context(), actor.UserID)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			zap.L().Warn("load session user failed", zap.Int("user_id", actor.UserID), zap.Error(err))
		}
		return service.Actor{}
	}
	return service.ActorOf(u)
}

func ActorFrom(ctx context.Context) service.Actor {
	a, _ := ctx.Value(ctxKeyActor{}).(service.Actor)
	return a
}

// RequireRoles пропускает только пользователей с одной из ролей,
// остальных отправляет на страницу входа.
func RequireRoles(loginPath string, allowed ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFrom(r.Context())
			if actor.Authenticated() {
				for _, role := range allowed {
					if actor.Role == role {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}

// RequireAdmin то же для /admin/*
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles("/admin/login", entity.RoleAdmin)(next)
}
