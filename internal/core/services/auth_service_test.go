package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/mocks"
)

func validRegistration() domain.UserRegistrationParams {
	return domain.UserRegistrationParams{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Nguyen",
		Password:  "Sup3rSecret",
	}
}

func TestAuthService_Register(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	svc := NewAuthService(userRepo, testLogger())

	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(nil, apperrors.ErrUserNotFound)
	call := userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User"))
	call.Run(func(args mock.Arguments) {
		call.ReturnArguments = mock.Arguments{args.Get(1), nil}
	})

	created, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, domain.RoleUser, created.Role)
	assert.True(t, created.Active)
	assert.NotEqual(t, "Sup3rSecret", created.HashedPassword)
	userRepo.AssertExpectations(t)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	svc := NewAuthService(userRepo, testLogger())

	existing := &domain.User{Email: "alice@example.com"}
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(existing, nil)

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterWeakPassword(t *testing.T) {
	userRepo := new(mocks.MockUserRepository)
	svc := NewAuthService(userRepo, testLogger())

	userRepo.On("GetByEmail", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrUserNotFound)

	params := validRegistration()
	params.Password = "short"

	_, err := svc.Register(context.Background(), params)
	require.Error(t, err)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	user, err := domain.NewUser(validRegistration())
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		stored   *domain.User
		wantErr  error
	}{
		{
			name:     "valid credentials",
			email:    user.Email,
			password: "Sup3rSecret",
			stored:   user,
		},
		{
			name:     "wrong password",
			email:    user.Email,
			password: "WrongPassw0rd",
			stored:   user,
			wantErr:  apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "Sup3rSecret",
			wantErr:  apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(mocks.MockUserRepository)
			svc := NewAuthService(userRepo, testLogger())

			if tt.stored != nil {
				userRepo.On("GetByEmail", mock.Anything, tt.email).Return(tt.stored, nil)
			} else {
				userRepo.On("GetByEmail", mock.Anything, tt.email).
					Return(nil, apperrors.ErrUserNotFound)
			}

			got, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stored.ID, got.ID)
		})
	}
}

func TestAuthService_LoginInactiveAccount(t *testing.T) {
	user, err := domain.NewUser(validRegistration())
	require.NoError(t, err)
	user.Active = false

	userRepo := new(mocks.MockUserRepository)
	svc := NewAuthService(userRepo, testLogger())
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err = svc.Login(context.Background(), user.Email, "Sup3rSecret")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
