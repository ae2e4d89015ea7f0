package middleware

import (
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"gaokao/internal/entity"
	"gaokao/internal/service"
)

const (
	SessionName = "app-session"

	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"
	keyFlash    = "flash"

	sessionMaxAge = 7 * 24 * 60 * 60
)

// Sessions cookie-сессии поверх gorilla/sessions.
type Sessions struct {
	store sessions.Store
}

// NewSessions создаёт хранилище. Без секрета ключ генерируется случайно,
// и сессии не переживают перезапуск.
func NewSessions(secret string) *Sessions {
	key := []byte(secret)
	if secret == "" {
		key = securecookie.GenerateRandomKey(32)
		zap.L().Warn("app.session_secret is empty, using a random key")
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func NewSessionsWithStore(store sessions.Store) *Sessions {
	return &Sessions{store: store}
}

// Login кладёт пользователя в сессию
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, u *entity.User) error {
	session, _ := s.store.Get(r, SessionName)
	session.Values[keyUserID] = u.ID
	session.Values[keyUsername] = u.Username
	session.Values[keyRole] = string(u.Role)
	return session.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Actor читает пользователя из сессии. Битая или пустая сессия считается анонимом.
func (s *Sessions) Actor(r *http.Request) service.Actor {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		var cerr securecookie.Error
		if !errors.As(err, &cerr) || !cerr.IsDecode() {
			zap.L().Debug("session read failed", zap.Error(err))
		}
		return service.Actor{}
	}

	userID, ok := session.Values[keyUserID].(int)
	if !ok || userID == 0 {
		return service.Actor{}
	}
	username, _ := session.Values[keyUsername].(string)
	role, _ := session.Values[keyRole].(string)
	return service.Actor{UserID: userID, Username: username, Role: entity.Role(role)}
}

// Flash одноразовое сообщение для следующей страницы.
func (s *Sessions) Flash(w http.ResponseWriter, r *http.Request, msg string) {
	session, _ := s.store.Get(r, SessionName)
	session.AddFlash(msg, keyFlash)
	if err := session.Save(r, w); err != nil {
		zap.L().Warn("save flash failed", zap.Error(err))
	}
}

func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := s.store.Get(r, SessionName)
	raw := session.Flashes(keyFlash)
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		zap.L().Warn("save session failed", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
