package validation_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/watchlist-server/internal/errors"
	"github.com/listenupapp/watchlist-server/internal/validation"
)

type joinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

type ratingRequest struct {
	Rating *int   `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Name   string `json:"name,omitempty" validate:"omitempty,notblank"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(joinRequest{
		Email:    "test@example.com",
		Username: "movie_fan",
		Password: "password123",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	valid := joinRequest{Email: "test@example.com", Username: "alice", Password: "password123"}

	tests := []struct {
		name      string
		mutate    func(*joinRequest)
		wantField string
	}{
		{"missing email", func(r *joinRequest) { r.Email = "" }, "email"},
		{"invalid email", func(r *joinRequest) { r.Email = "not-an-email" }, "email"},
		{"short username", func(r *joinRequest) { r.Username = "ab" }, "username"},
		{"username with spaces", func(r *joinRequest) { r.Username = "a b c" }, "username"},
		{"short password", func(r *joinRequest) { r.Password = "short" }, "password"},
		{"long password", func(r *joinRequest) { r.Password = strings.Repeat("x", 1025) }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_MessageListsFieldsInOrder(t *testing.T) {
	v := validation.New()

	err := v.Validate(joinRequest{})
	require.Error(t, err)
	assert.Equal(t, "email is required; password is required; username is required", err.Error())
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(joinRequest{Username: "alice", Password: "password123"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "Email")
}

func TestValidator_CustomTags(t *testing.T) {
	v := validation.New()

	eleven := 11
	five := 5

	assert.NoError(t, v.Validate(ratingRequest{Rating: &five}))
	assert.NoError(t, v.Validate(ratingRequest{}))
	assert.Error(t, v.Validate(ratingRequest{Rating: &eleven}))
	assert.Error(t, v.Validate(ratingRequest{Name: "   "}))
}
