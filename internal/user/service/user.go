package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/healthstock/healthstock-backend/internal/auth/jwt"
	"github.com/healthstock/healthstock-backend/internal/user/repository"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// UserService handles registration, authentication and profiles
type UserService struct {
	repo       *repository.UserRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo *repository.UserRepository, jwtManager *jwt.Manager, log *logger.Logger) *UserService {
	return &UserService{
		repo:       repo,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// RegisterRequest carries a new account registration
type RegisterRequest struct {
	Username     string  `json:"username" validate:"required,min=3,max=150"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Role         string  `json:"role" validate:"omitempty,oneof=admin inventory_manager procurement staff"`
	HospitalName string  `json:"hospital_name"`
	Phone        *string `json:"phone"`
}

// Register creates a new account with a bcrypt password hash
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*repository.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		HospitalName: req.HospitalName,
		Phone:        req.Phone,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("role", user.Role).
		Msg("user registered")

	return user, nil
}

// Login checks credentials and issues a token pair. Unknown usernames and
// wrong passwords return the same error so the response does not leak which
// accounts exist.
func (s *UserService) Login(ctx context.Context, username, password string) (*jwt.TokenPair, *repository.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil, errors.InvalidCredentials()
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errors.InvalidCredentials()
	}

	pair, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		HospitalName: user.HospitalName,
	})
	if err != nil {
		return nil, nil, errors.Internal("failed to issue tokens")
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user logged in")

	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.TokenInvalid()
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.TokenInvalid()
	}

	pair, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		HospitalName: user.HospitalName,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue tokens")
	}

	return pair, nil
}

// GetProfile gets a user by ID
func (s *UserService) GetProfile(ctx context.Context, userID string) (*repository.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfileRequest carries editable profile fields
type UpdateProfileRequest struct {
	Email        string  `json:"email" validate:"omitempty,email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	HospitalName string  `json:"hospital_name"`
	Phone        *string `json:"phone"`
}

// UpdateProfile updates the acting user's own profile. Username, role and
// active flag are not editable through this path.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*repository.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.HospitalName != "" {
		user.HospitalName = req.HospitalName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ListStaff lists active colleagues at the given hospital
func (s *UserService) ListStaff(ctx context.Context, hospitalName string) ([]*repository.User, error) {
	return s.repo.ListByHospital(ctx, hospitalName)
}
