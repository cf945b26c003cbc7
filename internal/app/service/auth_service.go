package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"code_practice/internal/common"
	"code_practice/internal/common/security"
	"code_practice/internal/domain/model"
	"code_practice/internal/domain/repository"
	"code_practice/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo           repository.UserRepository
	allowTeacherSignup bool
}

// NewAuthService builds the service. With allowTeacherSignup false, only students can self-register.
func NewAuthService(userRepo repository.UserRepository, allowTeacherSignup bool) *AuthService {
	return &AuthService{userRepo: userRepo, allowTeacherSignup: allowTeacherSignup}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher"` // student (default) or teacher
}

type LoginRequest struct {
	LoginField string `json:"login_field"` // username or email
	Password   string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if req.Role == model.RoleTeacher && !s.allowTeacherSignup {
		return nil, common.Errorf("teacher accounts cannot be self-registered: %w", common.ErrForbidden)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logger.Info(ctx, "user registered", zap.String("user_id", user.ID), zap.String("role", user.Role))

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	login := strings.TrimSpace(req.LoginField)
	if login == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	var user *model.User
	var err error
	if strings.Contains(login, "@") {
		user, err = s.userRepo.FindByEmail(ctx, login)
	} else {
		user, err = s.userRepo.FindByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPassword(user.HashedPassword, req.Password) {
		return nil, common.ErrUnauthorized
	}
	return s.issue(user)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}
