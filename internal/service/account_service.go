package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gaokao/internal/entity"
	"gaokao/internal/repository"
)

const (
	DefaultAdminUsername = "admin"
	DefaultUserUsername  = "user"
)

type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id int) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id int, passwordHash string, role entity.Role) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role entity.Role) (int64, error)
}

type AccountService struct {
	users UserStore
	cost  int
}

func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users, cost: bcrypt.DefaultCost}
}

// Authenticate проверяет логин и пароль. Неизвестный логин и неверный пароль
// дают одну и ту же ошибку.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// AuthenticateAdmin то же, но пускает только администраторов.
func (s *AccountService) AuthenticateAdmin(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Register самостоятельная регистрация, всегда с ролью user.
func (s *AccountService) Register(ctx context.Context, username, password string) (*entity.User, error) {
	return s.create(ctx, username, password, entity.RoleUser)
}

func (s *AccountService) ListUsers(ctx context.Context, actor Actor) ([]entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AccountService) GetUser(ctx context.Context, actor Actor, id int) (*entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// Current пользователь по id без проверки прав, для восстановления сессии.
func (s *AccountService) Current(ctx context.Context, id int) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *AccountService) CreateUser(ctx context.Context, actor Actor, username, password string, role entity.Role) (*entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	u, err := s.create(ctx, username, password, role)
	if err != nil {
		return nil, err
	}
	zap.L().Info("user created", zap.String("by", actor.Username), zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return u, nil
}

// UpdateUser меняет роль и, если передан, пароль.
// Пустой пароль оставляет прежний.
func (s *AccountService) UpdateUser(ctx context.Context, actor Actor, id int, password string, role entity.Role) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !role.Valid() {
		return invalidRole(role)
	}

	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get user %d: %w", id, err)
	}

	if u.IsAdmin() && role != entity.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}

	hash := u.PasswordHash
	if password != "" {
		if hash, err = s.hash(password); err != nil {
			return err
		}
	}

	if err := s.users.Update(ctx, id, hash, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update user %d: %w", id, err)
	}
	zap.L().Info("user updated", zap.String("by", actor.Username), zap.Int("id", id), zap.String("role", string(role)))
	return nil
}

func (s *AccountService) DeleteUser(ctx context.Context, actor Actor, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get user %d: %w", id, err)
	}
	if u.IsAdmin() {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	zap.L().Info("user deleted", zap.String("by", actor.Username), zap.Int("id", id))
	return nil
}

func (s *AccountService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// EnsureDefaults при первом запуске заводит admin и user.
// Если пользователи есть, но ни одного администратора, создаёт или повышает admin.
func (s *AccountService) EnsureDefaults(ctx context.Context, adminPassword, userPassword string) error {
	total, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if total == 0 {
		if _, err := s.create(ctx, DefaultAdminUsername, adminPassword, entity.RoleAdmin); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if _, err := s.create(ctx, DefaultUserUsername, userPassword, entity.RoleUser); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		zap.L().Info("default accounts created", zap.Strings("usernames", []string{DefaultAdminUsername, DefaultUserUsername}))
		return nil
	}

	admins, err := s.users.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	existing, err := s.users.GetByUsername(ctx, DefaultAdminUsername)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if _, err := s.create(ctx, DefaultAdminUsername, adminPassword, entity.RoleAdmin); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	case err != nil:
		return fmt.Errorf("get admin: %w", err)
	default:
		if err := s.users.Update(ctx, existing.ID, existing.PasswordHash, entity.RoleAdmin); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
	}
	zap.L().Warn("no admin account found, default admin restored", zap.String("username", DefaultAdminUsername))
	return nil
}

func (s *AccountService) create(ctx context.Context, username, password string, role entity.Role) (*entity.User, error) {
	username = strings.TrimSpace(username)

	verr := &entity.ValidationError{}
	if username == "" {
		verr.Add("username", "用户名不能为空")
	}
	if password == "" {
		verr.Add("password", "密码不能为空")
	}
	if !role.Valid() {
		verr.Add("role", "角色无效")
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *AccountService) ensureNotLastAdmin(ctx context.Context) error {
	admins, err := s.users.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *AccountService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func invalidRole(role entity.Role) error {
	verr := &entity.ValidationError{}
	verr.Add("role", fmt.Sprintf("角色无效: %q", role))
	return verr
}
