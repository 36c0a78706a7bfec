package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

func TestNewUser(t *testing.T) {
	t.Run("creates an active user with hashed password", func(t *testing.T) {
		user, err := domain.NewUser(domain.UserRegistrationParams{
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			Password:  "Password1",
		})

		require.NoError(t, err)
		assert.True(t, user.Active)
		assert.Equal(t, domain.RoleUser, user.Role, "role defaults to user")
		assert.NotEqual(t, "Password1", user.HashedPassword)
		assert.True(t, user.CheckPassword("Password1"))
		assert.False(t, user.CheckPassword("Password2"))
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := domain.NewUser(domain.UserRegistrationParams{
			Email:    "not-an-email",
			Password: "Password1",
		})

		var verrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Errors, "email")
	})

	t.Run("rejects weak password", func(t *testing.T) {
		_, err := domain.NewUser(domain.UserRegistrationParams{
			Email:    "jane@example.com",
			Password: "short",
		})

		var verrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Errors, "password")
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := domain.NewUser(domain.UserRegistrationParams{
			Email:    "jane@example.com",
			Password: "Password1",
			Role:     domain.UserRole("superuser"),
		})

		var verrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Errors, "role")
	})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Password1", true},
		{"too short", "Pw1", false},
		{"no uppercase", "password1", false},
		{"no lowercase", "PASSWORD1", false},
		{"no number", "Passwords", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := domain.ValidatePassword(tt.password)
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}
