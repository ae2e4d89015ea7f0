package service

import (
	"errors"

	"gaokao/internal/entity"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
)

// Actor тот, кто выполняет операцию. Нулевое значение означает анонима.
type Actor struct {
	UserID   int
	Username string
	Role     entity.Role
}

func ActorOf(u *entity.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (a Actor) Authenticated() bool {
	return a.UserID > 0
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == entity.RoleAdmin
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
