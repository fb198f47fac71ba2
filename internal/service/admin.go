package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/repository"
)

// AdminService backs the admin dashboard: user roles and statistics.
type AdminService struct {
	store repository.Store
	opts  options
}

// NewAdminService constructs an AdminService over store.
func NewAdminService(store repository.Store, opts ...Option) *AdminService {
	return &AdminService{store: store, opts: buildOptions(opts)}
}

// ListUsers returns every account, oldest first.
func (s *AdminService) ListUsers(ctx context.Context, sess model.Session) ([]model.User, error) {
	if !sess.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	out, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return out, nil
}

// Promote turns a plain user into a provider.
func (s *AdminService) Promote(ctx context.Context, sess model.Session, userID string) (*model.User, error) {
	return s.changeRole(ctx, sess, userID, model.RoleUser, model.RoleProvider)
}

// Demote turns a provider back into a plain user.  Events the provider
// already owns are kept.
func (s *AdminService) Demote(ctx context.Context, sess model.Session, userID string) (*model.User, error) {
	return s.changeRole(ctx, sess, userID, model.RoleProvider, model.RoleUser)
}

func (s *AdminService) changeRole(ctx context.Context, sess model.Session, userID string, from, to model.Role) (*model.User, error) {
	if !sess.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	var out *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.store.GetUserByID(ctx, userID)
		if err != nil {
			return storeErr("get user", err)
		}
		if u.Role != from {
			return invalid("user role is %s, expected %s", u.Role, from)
		}
		now := s.opts.now().UTC()
		if err := s.store.UpdateUserRole(ctx, userID, to, now); err != nil {
			return storeErr("update user role", err)
		}
		u.Role = to
		u.UpdatedAt = now
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.log.Info("user role changed",
		zap.String("user_id", userID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("by", sess.UserID))
	return out, nil
}

// Stats returns the dashboard counters.  Upcoming events are those dated
// today or later according to the service clock.
func (s *AdminService) Stats(ctx context.Context, sess model.Session) (model.Stats, error) {
	if !sess.IsAdmin() {
		return model.Stats{}, repository.ErrForbidden
	}
	st, err := s.store.Stats(ctx, s.opts.now().UTC().Format(dateLayout))
	if err != nil {
		return model.Stats{}, storeErr("stats", err)
	}
	return st, nil
}
