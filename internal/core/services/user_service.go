package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User management errors
var (
	ErrInvalidRole     = errors.New("role must be ADMIN or EMPLOYEE")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrLastAdmin       = errors.New("cannot remove the last admin account")
	ErrAccountNotFound = errors.New("account not found")
)

// UserService handles staff account management. Client accounts are
// provisioned through patient registration, not here.
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

// CreateStaffInput represents staff account creation input
type CreateStaffInput struct {
	Name     string      `json:"name" validate:"required"`
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     domain.Role `json:"role" validate:"required"`
	Phone    string      `json:"phone,omitempty"`
}

// CreateStaff creates an ADMIN or EMPLOYEE account
func (s *UserService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*models.UserResponse, error) {
	if !input.Role.IsStaff() {
		return nil, ErrInvalidRole
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	username := strings.TrimSpace(input.Username)
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// Staff emails live outside the client domain: the login flow
	// resolves username@<client domain> as a derived patient account and
	// pins the session to CLIENT, which would lock staff out of their
	// role if their email matched that pattern.
	user := &models.User{
		PublicID: uuid.New().String(),
		Name:     strings.TrimSpace(input.Name),
		Username: username,
		Email:    username + "@staff." + s.cfg.Lab.EmailDomain,
		Password: hashed,
		Role:     input.Role,
		Phone:    input.Phone,
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Staff account created: %s [%s]", user.Username, user.Role)
	return user.ToResponse(), nil
}

// List lists accounts with pagination
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return responses, total, nil
}

// SetActive enables or disables an account. Disabling revokes all its
// sessions; an inactive account cannot log in or refresh.
func (s *UserService) SetActive(ctx context.Context, userID uint, active bool) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if !active && user.Role == domain.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return nil, err
		}
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if !active {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
			log.Printf("❌ Failed to revoke sessions for user %d: %v", user.ID, err)
		}
	}

	log.Printf("✅ Account %s active=%t", user.Username, active)
	return user.ToResponse(), nil
}

// ResetPassword sets a new password and revokes existing sessions
func (s *UserService) ResetPassword(ctx context.Context, userID uint, newPassword string) error {
	if !password.ValidatePassword(newPassword) {
		return ErrWeakPassword
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		log.Printf("❌ Failed to revoke sessions for user %d: %v", user.ID, err)
	}

	log.Printf("✅ Password reset for: %s", user.Username)
	return nil
}

// Delete removes an account. The last remaining admin is protected.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	if user.Role == domain.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		log.Printf("❌ Failed to revoke sessions for user %d: %v", user.ID, err)
	}

	log.Printf("✅ Account deleted: %s", user.Username)
	return nil
}

func (s *UserService) ensureNotLastAdmin(ctx context.Context) error {
	count, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastAdmin
	}
	return nil
}
