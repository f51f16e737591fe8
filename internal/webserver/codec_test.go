package webserver

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/internal/catalog"
)

type sizedPayload struct {
	Code   string  `json:"code" validate:"required,max=8"`
	Height float64 `json:"height" validate:"gt=0"`
	Status string  `json:"status" validate:"omitempty,oneof=active draft"`
}

type checkedPayload struct {
	Name string `json:"name"`
}

func (p *checkedPayload) Validate() error {
	if p.Name == "reserved" {
		return &catalog.ValidationError{Field: "name", Reason: "reserved"}
	}
	return nil
}

func TestPayloadValidator(t *testing.T) {
	pv := newPayloadValidator()

	cases := []struct {
		payload interface{}
		field   string
		reason  string
	}{
		{&sizedPayload{Height: 1}, "code", "required"},
		{&sizedPayload{Code: "TOO-LONG-CODE", Height: 1}, "code", "must be at most 8"},
		{&sizedPayload{Code: "A"}, "height", "must be greater than 0"},
		{&sizedPayload{Code: "A", Height: 1, Status: "gone"}, "status", "must be one of active, draft"},
		{&checkedPayload{Name: "reserved"}, "name", "reserved"},
	}
	for _, tc := range cases {
		err := pv.Validate(tc.payload)
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrValidation)
		var ve *catalog.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, tc.field, ve.Field)
		assert.Equal(t, tc.reason, ve.Reason)
	}

	assert.NoError(t, pv.Validate(&sizedPayload{Code: "A", Height: 1}))
	assert.NoError(t, pv.Validate(&checkedPayload{Name: "fine"}))
	assert.NoError(t, pv.Validate(&[]sizedPayload{{}}))
}
