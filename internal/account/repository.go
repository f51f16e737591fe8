package account

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"gorm.io/gorm"
)

// Repository handles database operations for users
type Repository interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByWhatsapp(ctx context.Context, number string) (*domain.User, error)
	GetPrimaryAdmin(ctx context.Context) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Updates(ctx context.Context, id int64, values map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	// List searches name, number and city; page is 1-based.
	List(ctx context.Context, q string, adminOnly bool, page, pageSize int) ([]domain.User, int64, error)
	Count(ctx context.Context, adminOnly bool) (int64, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

var _ Repository = (*GormRepository)(nil)

func (r *GormRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(catalog.ErrNotFound, "user")
	}
	if err != nil {
		return nil, &catalog.StorageError{Op: "get user", Err: err}
	}
	return &user, nil
}

func (r *GormRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormRepository) GetByWhatsapp(ctx context.Context, number string) (*domain.User, error) {
	return r.first(ctx, "whatsapp = ?", number)
}

func (r *GormRepository) GetPrimaryAdmin(ctx context.Context) (*domain.User, error) {
	return r.first(ctx, "is_primary_admin = ?", true)
}

func (r *GormRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil && catalog.IsDuplicateKey(err) {
		return errors.Wrapf(catalog.ErrConflict, "whatsapp %s already registered", user.Whatsapp)
	}
	if err != nil {
		return &catalog.StorageError{Op: "create user", Err: err}
	}
	return nil
}

func (r *GormRepository) Updates(ctx context.Context, id int64, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return &catalog.StorageError{Op: "update user", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(catalog.ErrNotFound, "user")
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return &catalog.StorageError{Op: "delete user", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(catalog.ErrNotFound, "user")
	}
	return nil
}

func (r *GormRepository) scope(q string, adminOnly bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if adminOnly {
			db = db.Where("is_admin = ?", true)
		}
		if q = strings.TrimSpace(q); q != "" {
			if strings.EqualFold(db.Name(), "postgres") {
				like := "%" + q + "%"
				db = db.Where("name ILIKE ? OR whatsapp ILIKE ? OR city ILIKE ?", like, like, like)
			} else {
				like := "%" + strings.ToLower(q) + "%"
				db = db.Where("LOWER(name) LIKE ? OR LOWER(whatsapp) LIKE ? OR LOWER(city) LIKE ?", like, like, like)
			}
		}
		return db
	}
}

func (r *GormRepository) List(ctx context.Context, q string, adminOnly bool, page, pageSize int) ([]domain.User, int64, error) {
	db := r.db.WithContext(ctx).Model(&domain.User{}).Scopes(r.scope(q, adminOnly))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, &catalog.StorageError{Op: "count users", Err: err}
	}
	rows := make([]domain.User, 0)
	offset, ok := catalog.PageOffset(page, pageSize)
	if !ok {
		return rows, total, nil
	}
	err := db.Order("is_primary_admin DESC, is_admin DESC, created_at DESC, id DESC").
		Offset(offset).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return nil, 0, &catalog.StorageError{Op: "list users", Err: err}
	}
	return rows, total, nil
}

func (r *GormRepository) Count(ctx context.Context, adminOnly bool) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Scopes(r.scope("", adminOnly)).Count(&total).Error
	if err != nil {
		return 0, &catalog.StorageError{Op: "count users", Err: err}
	}
	return total, nil
}
