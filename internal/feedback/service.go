// Package feedback collects customer reviews and their moderation state.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/pkg/common"
)

// Notifier is told about every new submission.
type Notifier interface {
	FeedbackSubmitted(user domain.User, fb domain.Feedback)
}

type SubmitRequest struct {
	ProductID *int64 `json:"productId"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Title     string `json:"title" validate:"required,max=255"`
	Message   string `json:"message" validate:"required"`
}

type RatingStats struct {
	Count        int         `json:"count"`
	Mean         float64     `json:"mean"`
	Median       float64     `json:"median"`
	Distribution map[int]int `json:"distribution"`
}

type Service struct {
	repo     Repository
	products catalog.Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates the service. notifier may be nil.
func NewService(repo Repository, products catalog.Store, notifier Notifier) *Service {
	return &Service{repo: repo, products: products, notifier: notifier, now: time.Now}
}

func (s *Service) Submit(ctx context.Context, user *domain.User, req SubmitRequest) (*domain.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, &catalog.ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 255 {
		return nil, &catalog.ValidationError{Field: "title", Reason: "required, at most 255 characters"}
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, &catalog.ValidationError{Field: "message", Reason: "required"}
	}
	if req.ProductID != nil {
		if _, err := s.products.Get(ctx, *req.ProductID); err != nil {
			return nil, err
		}
	}
	fb := &domain.Feedback{
		ID:        common.UUIDint64(),
		UserID:    user.ID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Title:     title,
		Message:   message,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.FeedbackSubmitted(*user, *fb)
	}
	return fb, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Feedback, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, page, pageSize int) ([]domain.Feedback, int64, error) {
	return s.repo.List(ctx, filter, page, pageSize)
}

// ListPublished returns what visitors may see, optionally for one product.
func (s *Service) ListPublished(ctx context.Context, productID *int64, page, pageSize int) ([]domain.Feedback, int64, error) {
	published := true
	return s.repo.List(ctx, Filter{Published: &published, ProductID: productID}, page, pageSize)
}

// Approve sets the approval flag. Withdrawing approval also unpublishes.
func (s *Service) Approve(ctx context.Context, id int64, approved bool) (*domain.Feedback, error) {
	values := map[string]interface{}{"is_approved": approved}
	if !approved {
		values["is_published"] = false
	}
	if err := s.repo.Updates(ctx, id, values); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Publish sets the published flag. Only approved feedback can be published.
func (s *Service) Publish(ctx context.Context, id int64, published bool) (*domain.Feedback, error) {
	fb, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if published && !fb.IsApproved {
		return nil, &catalog.ValidationError{Field: "is_published", Reason: "feedback must be approved first"}
	}
	if err := s.repo.Updates(ctx, id, map[string]interface{}{"is_published": published}); err != nil {
		return nil, err
	}
	fb.IsPublished = published
	return fb, nil
}

func (s *Service) SetNote(ctx context.Context, id int64, note string) (*domain.Feedback, error) {
	if err := s.repo.Updates(ctx, id, map[string]interface{}{"admin_note": strings.TrimSpace(note)}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Stats summarises every rating received.
func (s *Service) Stats(ctx context.Context) (*RatingStats, error) {
	ratings, err := s.repo.Ratings(ctx)
	if err != nil {
		return nil, err
	}
	out := &RatingStats{Count: len(ratings), Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(ratings) == 0 {
		return out, nil
	}
	for _, r := range ratings {
		out.Distribution[r]++
	}
	data := stats.LoadRawData(ratings)
	if out.Mean, err = stats.Mean(data); err != nil {
		return nil, err
	}
	if out.Median, err = stats.Median(data); err != nil {
		return nil, err
	}
	out.Mean, _ = stats.Round(out.Mean, 2)
	return out, nil
}
