// Package account registers users by WhatsApp number and enforces the
// administrator rules.
package account

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/whatsapp"
	"github.com/vfstudio/vfcatalog/pkg/common"
	"go.uber.org/zap"
)

// TopicUserDeleted is published with the user id after a delete.
const TopicUserDeleted = "user:deleted"

var (
	ErrForbidden        = errors.New("forbidden")
	ErrPasswordRequired = errors.New("password required")
	ErrBadCredentials   = errors.New("invalid credentials")
)

type LoginRequest struct {
	Whatsapp string `json:"whatsapp" validate:"required"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Password string `json:"password"`
}

// Patch is a partial user update. Nil fields are left alone.
type Patch struct {
	Name    *string `mapstructure:"name"`
	City    *string `mapstructure:"city"`
	IsAdmin *bool   `mapstructure:"is_admin"`
}

type Service struct {
	repo   Repository
	events catalog.Publisher
	region string
	now    func() time.Time
}

// NewService builds the account service. region is the phone numbering
// region assumed for numbers entered without a country code.
func NewService(repo Repository, events catalog.Publisher, region string) *Service {
	if region == "" {
		region = whatsapp.DefaultRegion
	}
	return &Service{repo: repo, events: events, region: region, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q string, adminOnly bool, page, pageSize int) ([]domain.User, int64, error) {
	return s.repo.List(ctx, q, adminOnly, page, pageSize)
}

func (s *Service) Count(ctx context.Context, adminOnly bool) (int64, error) {
	return s.repo.Count(ctx, adminOnly)
}

// Login finds or registers the user owning the number. Administrators must
// present their password; one without a password sets it here.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.User, error) {
	number, err := whatsapp.Normalize(req.Whatsapp, s.region)
	if err != nil {
		return nil, &catalog.ValidationError{Field: "whatsapp", Reason: err.Error()}
	}
	user, err := s.repo.GetByWhatsapp(ctx, number)
	if errors.Is(err, catalog.ErrNotFound) {
		return s.register(ctx, number, req)
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"last_login": s.now()}
	if user.IsAdmin {
		switch {
		case user.PasswordHash == "" && req.Password == "":
			return nil, ErrPasswordRequired
		case user.PasswordHash == "":
			hash, err := common.HashPassword(req.Password)
			if err != nil {
				return nil, err
			}
			updates["password_hash"] = hash
			user.PasswordHash = hash
			zap.L().Info("admin password initialised", zap.Int64("user_id", user.ID))
		case !common.CheckPassword(user.PasswordHash, req.Password):
			return nil, ErrBadCredentials
		}
	}
	if user.Name == "" && strings.TrimSpace(req.Name) != "" {
		user.Name = strings.TrimSpace(req.Name)
		updates["name"] = user.Name
	}
	if user.City == "" && strings.TrimSpace(req.City) != "" {
		user.City = strings.TrimSpace(req.City)
		updates["city"] = user.City
	}
	if err := s.repo.Updates(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	user.LastLogin = updates["last_login"].(time.Time)
	return user, nil
}

func (s *Service) register(ctx context.Context, number string, req LoginRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &catalog.ValidationError{Field: "name", Reason: "required for new users"}
	}
	now := s.now()
	user := &domain.User{
		ID:        common.UUIDint64(),
		Whatsapp:  number,
		Name:      name,
		City:      strings.TrimSpace(req.City),
		LastLogin: now,
	}
	err := s.repo.Create(ctx, user)
	if errors.Is(err, catalog.ErrConflict) {
		// registered concurrently by another request
		return s.repo.GetByWhatsapp(ctx, number)
	}
	if err != nil {
		return nil, err
	}
	zap.L().Info("user registered", zap.Int64("user_id", user.ID), zap.String("city", user.City))
	return user, nil
}

// EnsurePrimaryAdmin creates the primary administrator or repairs its flags.
func (s *Service) EnsurePrimaryAdmin(ctx context.Context, rawNumber, name string) (*domain.User, error) {
	number, err := whatsapp.Normalize(rawNumber, s.region)
	if err != nil {
		return nil, err
	}
	if primary, err := s.repo.GetPrimaryAdmin(ctx); err == nil {
		if !primary.IsAdmin {
			if err := s.repo.Updates(ctx, primary.ID, map[string]interface{}{"is_admin": true}); err != nil {
				return nil, err
			}
			primary.IsAdmin = true
			zap.L().Warn("repaired primary admin account", zap.Int64("user_id", primary.ID))
		}
		return primary, nil
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}

	user, err := s.repo.GetByWhatsapp(ctx, number)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		user = &domain.User{
			ID:             common.UUIDint64(),
			Whatsapp:       number,
			Name:           name,
			IsAdmin:        true,
			IsPrimaryAdmin: true,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
		zap.L().Info("initialized primary admin account", zap.String("whatsapp", number))
		return user, nil
	case err != nil:
		return nil, err
	}
	if err := s.repo.Updates(ctx, user.ID, map[string]interface{}{"is_admin": true, "is_primary_admin": true}); err != nil {
		return nil, err
	}
	user.IsAdmin, user.IsPrimaryAdmin = true, true
	zap.L().Info("promoted existing user to primary admin", zap.Int64("user_id", user.ID))
	return user, nil
}

// Update applies patch on behalf of actor. Only the primary admin may grant
// or revoke admin rights and nobody may change the primary admin's flag.
func (s *Service) Update(ctx context.Context, actor *domain.User, id int64, patch Patch) (*domain.User, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, ErrForbidden
	}
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, &catalog.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		updates["name"] = name
		target.Name = name
	}
	if patch.City != nil {
		target.City = strings.TrimSpace(*patch.City)
		updates["city"] = target.City
	}
	if patch.IsAdmin != nil && *patch.IsAdmin != target.IsAdmin {
		if !actor.IsPrimaryAdmin {
			return nil, errors.Wrap(ErrForbidden, "only the primary admin can change admin rights")
		}
		if target.IsPrimaryAdmin {
			return nil, errors.Wrap(ErrForbidden, "the primary admin keeps admin rights")
		}
		updates["is_admin"] = *patch.IsAdmin
		target.IsAdmin = *patch.IsAdmin
		if !target.IsAdmin {
			updates["password_hash"] = ""
			target.PasswordHash = ""
		}
	}
	if target.IsPrimaryAdmin && !actor.IsPrimaryAdmin && len(updates) > 0 {
		return nil, errors.Wrap(ErrForbidden, "only the primary admin can edit its own account")
	}
	if len(updates) == 0 {
		return target, nil
	}
	if err := s.repo.Updates(ctx, id, updates); err != nil {
		return nil, err
	}
	return target, nil
}

// Delete removes a user. The primary admin cannot be deleted.
func (s *Service) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if actor == nil || !actor.IsAdmin {
		return ErrForbidden
	}
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.IsPrimaryAdmin {
		return errors.Wrap(ErrForbidden, "the primary admin cannot be deleted")
	}
	if target.IsAdmin && !actor.IsPrimaryAdmin {
		return errors.Wrap(ErrForbidden, "only the primary admin can delete admins")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		s.events.Publish(TopicUserDeleted, id)
	}
	return nil
}
