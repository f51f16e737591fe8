package feedback

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/testutil"
)

type recorder struct {
	mu  sync.Mutex
	got []domain.Feedback
}

func (r *recorder) FeedbackSubmitted(user domain.User, fb domain.Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, fb)
}

func newService(t *testing.T) (*Service, catalog.Store, *recorder) {
	db := testutil.NewTestDB(t)
	products := catalog.NewGormStore(db, nil)
	rec := &recorder{}
	return NewService(NewGormRepository(db), products, rec), products, rec
}

var visitor = &domain.User{ID: 42, Name: "Asha", Whatsapp: "+919876543210"}

func TestSubmitValidation(t *testing.T) {
	svc, _, rec := newService(t)
	ctx := context.Background()

	for _, req := range []SubmitRequest{
		{Rating: 0, Title: "t", Message: "m"},
		{Rating: 6, Title: "t", Message: "m"},
		{Rating: 3, Title: " ", Message: "m"},
		{Rating: 3, Title: "t", Message: ""},
	} {
		_, err := svc.Submit(ctx, visitor, req)
		assert.ErrorIs(t, err, catalog.ErrValidation, "%+v", req)
	}
	missing := int64(404)
	_, err := svc.Submit(ctx, visitor, SubmitRequest{ProductID: &missing, Rating: 3, Title: "t", Message: "m"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Empty(t, rec.got)
}

func TestModerationFlow(t *testing.T) {
	svc, products, rec := newService(t)
	ctx := context.Background()
	p := testutil.Product("VF-1", "Bowl", "Decor", "Brass", "")
	require.NoError(t, products.Create(ctx, p))

	fb, err := svc.Submit(ctx, visitor, SubmitRequest{ProductID: &p.ID, Rating: 5, Title: "Lovely", Message: "Great finish"})
	require.NoError(t, err)
	assert.False(t, fb.IsApproved)
	assert.False(t, fb.IsPublished)
	assert.Len(t, rec.got, 1)

	_, err = svc.Publish(ctx, fb.ID, true)
	assert.ErrorIs(t, err, catalog.ErrValidation)

	_, err = svc.Approve(ctx, fb.ID, true)
	require.NoError(t, err)
	published, err := svc.Publish(ctx, fb.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	rows, total, err := svc.ListPublished(ctx, &p.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, fb.ID, rows[0].ID)

	noted, err := svc.SetNote(ctx, fb.ID, "  thanked on whatsapp ")
	require.NoError(t, err)
	assert.Equal(t, "thanked on whatsapp", noted.AdminNote)

	// withdrawing approval hides it again
	withdrawn, err := svc.Approve(ctx, fb.ID, false)
	require.NoError(t, err)
	assert.False(t, withdrawn.IsPublished)
	_, total, err = svc.ListPublished(ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	require.NoError(t, svc.Delete(ctx, fb.ID))
	assert.ErrorIs(t, svc.Delete(ctx, fb.ID), catalog.ErrNotFound)
	_, err = svc.Approve(ctx, fb.ID, true)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestStats(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)

	for _, r := range []int{5, 4, 4, 1} {
		_, err := svc.Submit(ctx, visitor, SubmitRequest{Rating: r, Title: "t", Message: "m"})
		require.NoError(t, err)
	}
	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 3.5, st.Mean, 0.001)
	assert.InDelta(t, 4.0, st.Median, 0.001)
	assert.Equal(t, 2, st.Distribution[4])
	assert.Equal(t, 0, st.Distribution[2])
}
