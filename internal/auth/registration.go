package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// DefaultRoleName is assigned to every self-registered account. Its
// absence from the role table is a bootstrap fault, not a user error.
const DefaultRoleName = RoleUser

// RegisterRequest represents the registration form payload
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// ValidationError represents a validation error with field details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegistrationService validates and persists new user accounts.
type RegistrationService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	hasher    *PasswordHasher
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewRegistrationService creates a new RegistrationService instance
func NewRegistrationService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	hasher *PasswordHasher,
	logger *slog.Logger,
) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		hasher:   hasher,
		validate: validator.New(),
		// Names are rendered back into HTML pages; strip all markup.
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// Register creates a new user account. Username and email uniqueness
// are both checked before any write, so a duplicate email never leaves
// a partially-created user behind. The new account gets all four status
// flags set and exactly the default role.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*repository.User, []ValidationError, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FirstName = s.sanitizer.Sanitize(strings.TrimSpace(req.FirstName))
	req.LastName = s.sanitizer.Sanitize(strings.TrimSpace(req.LastName))

	validationErrors := s.validateRequest(req)
	if len(validationErrors) > 0 {
		return nil, validationErrors, nil
	}

	usernameTaken, err := s.userRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, nil, err
	}
	if usernameTaken {
		return nil, nil, ErrDuplicateUsername
	}

	emailTaken, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, nil, err
	}
	if emailTaken {
		return nil, nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	defaultRole, err := s.roleRepo.GetByName(ctx, DefaultRoleName)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			// Bootstrap invariant broken: the default role must exist
			// before registration is opened. Alert operators.
			s.logger.Error("default role missing; registration cannot proceed",
				"role", DefaultRoleName,
			)
			return nil, nil, ErrRoleNotFound
		}
		return nil, nil, err
	}

	user := &repository.User{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          passwordHash,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Roles:                 []repository.Role{*defaultRole},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The uniqueness checks race with concurrent registrations;
		// the unique constraints are the source of truth.
		if errors.Is(err, repository.ErrUsernameAlreadyExists) {
			return nil, nil, ErrDuplicateUsername
		}
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return nil, nil, ErrDuplicateEmail
		}
		return nil, nil, err
	}

	s.logger.Info("new user registered", "username", user.Username)
	return user, nil, nil
}

// validateRequest runs struct validation plus password complexity and
// flattens the results into field-level errors.
func (s *RegistrationService) validateRequest(req RegisterRequest) []ValidationError {
	var validationErrors []ValidationError

	if err := s.validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, ValidationError{
					Field:   strings.ToLower(fe.Field()),
					Message: validationMessage(fe),
				})
			}
		} else {
			validationErrors = append(validationErrors, ValidationError{
				Field:   "request",
				Message: "Invalid registration input",
			})
		}
	}

	for _, pe := range s.hasher.ValidatePassword(req.Password) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   pe.Field,
			Message: pe.Message,
		})
	}

	return validationErrors
}

// validationMessage renders a human-readable message for a field error.
func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}
