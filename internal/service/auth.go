package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on a failed login attempt. It is
// deliberately the same for an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

const verificationCodeTTL = 10 * time.Minute

func (s *DefaultService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, models.NewValidationError("user with this email already exists")
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Create the user
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	// Issue a verification code; delivery is fire-and-forget
	code := generateCode()
	vc := &models.VerificationCode{
		Email:     user.Email,
		UserID:    user.ID,
		Code:      code,
		Purpose:   "signup",
		ExpiresAt: s.now().UTC().Add(verificationCodeTTL),
	}
	if err := s.repo.CreateVerificationCode(ctx, vc); err != nil {
		return nil, fmt.Errorf("error creating verification code: %w", err)
	}
	s.notifier.SendVerificationCode(user.Email, code)

	return &models.RegisterResponse{
		Status:               "success",
		Email:                user.Email,
		RequiresVerification: true,
		Message:              "Verification code sent to your email",
	}, nil
}

func (s *DefaultService) VerifyCode(ctx context.Context, req models.VerifyRequest) (*models.AuthResponse, error) {
	vc, err := s.repo.ConsumeVerificationCode(ctx, req.Email, req.Code, "signup", s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("error consuming verification code: %w", err)
	}

	if vc == nil {
		return nil, models.NewValidationError("invalid or expired verification code")
	}

	if err := s.repo.MarkUserVerified(ctx, vc.UserID); err != nil {
		return nil, fmt.Errorf("error marking user verified: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, vc.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, models.ErrNotFound
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := s.now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": s.now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// generateCode returns a 6-digit verification code.
func generateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}
