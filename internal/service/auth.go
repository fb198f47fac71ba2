package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/config"
	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/repository"
	"github.com/iliyamo/events-booking/internal/utils"
)

// AuthService issues and rotates tokens and manages the caller's own
// profile.  New accounts always get the plain user role; providers and
// admins are made through AdminService or EnsureAdmin.
type AuthService struct {
	cfg   config.Config
	store repository.Store
	opts  options
}

// NewAuthService constructs an AuthService.  cfg supplies the JWT secret,
// token lifetimes and bcrypt cost.
func NewAuthService(cfg config.Config, store repository.Store, opts ...Option) *AuthService {
	return &AuthService{cfg: cfg, store: store, opts: buildOptions(opts)}
}

// Tokens is the result of a successful sign-up, login or refresh.
type Tokens struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

type credentials struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
	Name     string `validate:"required,max=100"`
}

// Register creates a user account and returns a fresh token pair.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*Tokens, error) {
	in := credentials{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
		Name:     strings.TrimSpace(name),
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.createUser(ctx, in, model.RoleUser)
	if err != nil {
		return nil, err
	}
	s.opts.log.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(ctx, *u)
}

func (s *AuthService) createUser(ctx context.Context, in credentials, role model.Role) (*model.User, error) {
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.opts.now().UTC()
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, storeErr("create user", err)
	}
	return u, nil
}

// Login verifies the credentials and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Tokens, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrUserNotFound) {
		utils.RejectPassword(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, *u)
}

// Refresh exchanges a valid refresh token for a new pair and revokes the
// old refresh token.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Tokens, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	var u *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		now := s.opts.now().UTC()
		userID, err := s.store.ValidateRefresh(ctx, hash, now)
		if err != nil {
			return storeErr("validate refresh", err)
		}
		if err := s.store.RevokeByHash(ctx, hash, now); err != nil {
			return storeErr("revoke refresh", err)
		}
		u, err = s.loadTokenUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, *u)
}

// RefreshAccess returns a new access token for a valid refresh token
// without rotating it.
func (s *AuthService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := s.store.ValidateRefresh(ctx, hash, s.opts.now().UTC())
	if err != nil {
		return utils.AccessToken{}, storeErr("validate refresh", err)
	}
	u, err := s.loadTokenUser(ctx, userID)
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.cfg.JWTSecret, u.Session(), s.cfg.AccessTTLMin, s.opts.now())
}

// loadTokenUser maps a vanished user to ErrInvalidToken.
func (s *AuthService) loadTokenUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrInvalidToken
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// Logout revokes a single refresh token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	now := s.opts.now().UTC()
	if _, err := s.store.ValidateRefresh(ctx, hash, now); err != nil {
		return storeErr("validate refresh", err)
	}
	return storeErr("revoke refresh", s.store.RevokeByHash(ctx, hash, now))
}

// LogoutAll revokes every refresh token of the caller.
func (s *AuthService) LogoutAll(ctx context.Context, sess model.Session) error {
	return storeErr("revoke all refresh", s.store.RevokeAllForUser(ctx, sess.UserID, s.opts.now().UTC()))
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, sess model.Session) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// UpdateName changes the caller's display name.  Registrations keep the
// name they were booked with.
func (s *AuthService) UpdateName(ctx context.Context, sess model.Session, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if err := validate.Var(name, "required,max=100"); err != nil {
		return nil, invalid("name is required and at most 100 characters")
	}
	if err := s.store.UpdateUserName(ctx, sess.UserID, name, s.opts.now().UTC()); err != nil {
		return nil, storeErr("update user name", err)
	}
	return s.Me(ctx, sess)
}

// EnsureAdmin makes sure an admin account exists for email.  An existing
// account is promoted; otherwise one is created with password.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == model.RoleAdmin {
			return nil
		}
		if err := s.store.UpdateUserRole(ctx, u.ID, model.RoleAdmin, s.opts.now().UTC()); err != nil {
			return storeErr("update user role", err)
		}
		s.opts.log.Info("existing user promoted to admin", zap.String("user_id", u.ID))
		return nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return storeErr("get user", err)
	}
	in := credentials{Email: email, Password: password, Name: strings.TrimSpace(name)}
	if err := validateStruct(in); err != nil {
		return err
	}
	u, err = s.createUser(ctx, in, model.RoleAdmin)
	if err != nil {
		return err
	}
	s.opts.log.Info("admin account created", zap.String("user_id", u.ID))
	return nil
}

func (s *AuthService) issue(ctx context.Context, u model.User) (*Tokens, error) {
	now := s.opts.now()
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.Session(), s.cfg.AccessTTLMin, now)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, storeErr("store refresh", err)
	}
	return &Tokens{User: u, Access: access, Refresh: refresh}, nil
}
