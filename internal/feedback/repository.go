package feedback

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"gorm.io/gorm"
)

// Filter narrows feedback listings. Nil fields are unconstrained.
type Filter struct {
	Approved  *bool
	Published *bool
	ProductID *int64
}

type Repository interface {
	Create(ctx context.Context, fb *domain.Feedback) error
	Get(ctx context.Context, id int64) (*domain.Feedback, error)
	List(ctx context.Context, filter Filter, page, pageSize int) ([]domain.Feedback, int64, error)
	Updates(ctx context.Context, id int64, values map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	Ratings(ctx context.Context) ([]int, error)
}

type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	if err := r.db.WithContext(ctx).Create(fb).Error; err != nil {
		return &catalog.StorageError{Op: "create feedback", Err: err}
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id int64) (*domain.Feedback, error) {
	var fb domain.Feedback
	err := r.db.WithContext(ctx).First(&fb, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(catalog.ErrNotFound, "feedback %d", id)
	}
	if err != nil {
		return nil, &catalog.StorageError{Op: "get feedback", Err: err}
	}
	return &fb, nil
}

func (r *GormRepository) List(ctx context.Context, filter Filter, page, pageSize int) ([]domain.Feedback, int64, error) {
	db := r.db.WithContext(ctx).Model(&domain.Feedback{})
	if filter.Approved != nil {
		db = db.Where("is_approved = ?", *filter.Approved)
	}
	if filter.Published != nil {
		db = db.Where("is_published = ?", *filter.Published)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, &catalog.StorageError{Op: "count feedback", Err: err}
	}
	rows := make([]domain.Feedback, 0)
	offset, ok := catalog.PageOffset(page, pageSize)
	if !ok {
		return rows, total, nil
	}
	err := db.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return nil, 0, &catalog.StorageError{Op: "list feedback", Err: err}
	}
	return rows, total, nil
}

func (r *GormRepository) Updates(ctx context.Context, id int64, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&domain.Feedback{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return &catalog.StorageError{Op: "update feedback", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(catalog.ErrNotFound, "feedback %d", id)
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Feedback{}, id)
	if res.Error != nil {
		return &catalog.StorageError{Op: "delete feedback", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(catalog.ErrNotFound, "feedback %d", id)
	}
	return nil
}

func (r *GormRepository) Ratings(ctx context.Context) ([]int, error) {
	var ratings []int
	if err := r.db.WithContext(ctx).Model(&domain.Feedback{}).Pluck("rating", &ratings).Error; err != nil {
		return nil, &catalog.StorageError{Op: "feedback ratings", Err: err}
	}
	return ratings, nil
}
