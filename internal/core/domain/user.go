package domain

import (
	"net/mail"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

// Password and profile limits.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 255
	MaxEmailLength    = 255
)

// UserRole determines what a user may do in the helpdesk.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleTechnician UserRole = "technician"
	RoleUser       UserRole = "user"
)

// ValidUserRoles lists every accepted role.
var ValidUserRoles = []UserRole{RoleAdmin, RoleTechnician, RoleUser}

// IsValidUserRole reports whether r is a known role.
func IsValidUserRole(r UserRole) bool {
	for _, valid := range ValidUserRoles {
		if r == valid {
			return true
		}
	}
	return false
}

// User is a helpdesk account: requester, technician, or admin.
type User struct {
	ID              uuid.UUID
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	Phone           string
	Role            UserRole
	Department      string
	HashedPassword  string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserRegistrationParams holds parameters for user registration.
type UserRegistrationParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      UserRole
}

// Validate validates user registration parameters.
func (p *UserRegistrationParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if p.Email == "" {
		errs.Add("email", "Email is required")
	} else if len(p.Email) > MaxEmailLength {
		errs.Add("email", "Email must be 255 characters or less")
	} else if !isValidEmail(p.Email) {
		errs.Add("email", "Invalid email format")
	}

	if len(p.FirstName) > MaxNameLength {
		errs.Add("firstName", "First name must be 255 characters or less")
	}
	if len(p.LastName) > MaxNameLength {
		errs.Add("lastName", "Last name must be 255 characters or less")
	}

	if p.Role != "" && !IsValidUserRole(p.Role) {
		errs.Add("role", "Must be one of: admin, technician, user")
	}

	for _, err := range ValidatePassword(p.Password) {
		errs.Add("password", err)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidatePassword checks if a password meets security requirements.
// Returns a slice of error messages (empty if valid).
func ValidatePassword(password string) []string {
	var errors []string

	if len(password) < MinPasswordLength {
		errors = append(errors, "Password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordLength {
		errors = append(errors, "Password must be 128 characters or less")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		errors = append(errors, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		errors = append(errors, "Password must contain at least one lowercase letter")
	}
	if !hasNumber {
		errors = append(errors, "Password must contain at least one number")
	}

	return errors
}

// isValidEmail validates email format
func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	return err == nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if errs := ValidatePassword(password); len(errs) > 0 {
		return "", apperrors.ErrPasswordTooWeak
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewUser creates a new user with validated parameters.
func NewUser(params UserRegistrationParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = RoleUser
	}

	now := time.Now().UTC()
	return &User{
		ID:             uuid.New(),
		Email:          params.Email,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Role:           role,
		HashedPassword: hashedPassword,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
