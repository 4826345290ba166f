// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// AuthService issues and refreshes operator tokens. Brand API credentials
// are handled entirely in middleware; this service only covers console
// users.
type AuthService struct {
	store store.Store
	cfg   *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(st store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: st,
		cfg:   cfg,
	}
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.AuthenticationFailed(apperrors.CodeInvalidCredentials, "Invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.AuthenticationFailed(apperrors.CodeInvalidCredentials, "Invalid email or password")
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("Account is disabled")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.buildAuthResponse(user)
}

func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	subject, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.AuthenticationFailed(apperrors.CodeInvalidToken, "Invalid or expired refresh token")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, apperrors.AuthenticationFailed(apperrors.CodeInvalidToken, "Invalid or expired refresh token")
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.AuthenticationFailed(apperrors.CodeInvalidToken, "Invalid or expired refresh token")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("Account is disabled")
	}

	return s.buildAuthResponse(user)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *AuthService) buildAuthResponse(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
