package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/config"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/ports"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo  ports.UserRepository
	jwtConfig config.JWTConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtConfig: jwtConfig,
		logger:    logger.WithComponent("auth"),
		now:       time.Now,
	}
}

// Register creates a new user account and signs a token for it
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	username := entities.NormalizeUsername(req.Username)
	email := entities.NormalizeEmail(req.Email)

	verr := entities.NewValidationError("invalid registration")
	if utf8.RuneCountInString(username) < minUsernameLength {
		verr.WithField("username", fmt.Sprintf("must be at least %d characters", minUsernameLength))
	}
	if !entities.IsEmail(email) {
		verr.WithField("email", "must be a valid email address")
	}
	if len(req.Password) < minPasswordLength {
		verr.WithField("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if taken, err := s.exists(s.userRepo.GetByUsername(ctx, username)); err != nil {
		return nil, err
	} else if taken {
		return nil, entities.ErrUsernameTaken
	}

	if taken, err := s.exists(s.userRepo.GetByEmail(ctx, email)); err != nil {
		return nil, err
	} else if taken {
		return nil, entities.ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storageError("create user", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID, "username", user.Username)

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Message:  "User registered successfully",
	}, nil
}

// Login checks credentials and signs a token
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	email := entities.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, entities.ErrUserNotFound) {
		s.logger.LogSecurityEvent("login_unknown_email", "", "", map[string]interface{}{"email": email})
		return nil, entities.ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageError("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.LogSecurityEvent("login_bad_password", user.ID.String(), "", nil)
		return nil, entities.ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User logged in", "user_id", user.ID)

	return &ports.AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	}, nil
}

// CheckUsername reports whether a username can still be registered
func (s *AuthService) CheckUsername(ctx context.Context, username string) (*ports.AvailabilityResponse, error) {
	username = entities.NormalizeUsername(username)
	if username == "" {
		return nil, entities.NewValidationError("username is required").WithField("username", "is required")
	}

	taken, err := s.exists(s.userRepo.GetByUsername(ctx, username))
	if err != nil {
		return nil, err
	}
	if taken {
		return &ports.AvailabilityResponse{Available: false, Message: "Username is already taken"}, nil
	}
	return &ports.AvailabilityResponse{Available: true, Message: "Username is available"}, nil
}

// CheckEmail reports whether an email can still be registered
func (s *AuthService) CheckEmail(ctx context.Context, email string) (*ports.AvailabilityResponse, error) {
	email = entities.NormalizeEmail(email)
	if email == "" {
		return nil, entities.NewValidationError("email is required").WithField("email", "is required")
	}

	taken, err := s.exists(s.userRepo.GetByEmail(ctx, email))
	if err != nil {
		return nil, err
	}
	if taken {
		return &ports.AvailabilityResponse{Available: false, Message: "Email is already registered"}, nil
	}
	return &ports.AvailabilityResponse{Available: true, Message: "Email is available"}, nil
}

// ValidateToken verifies a signed token and returns the user id it carries
func (s *AuthService) ValidateToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", entities.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, entities.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", entities.ErrUnauthorized)
	}

	return userID, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// exists folds a lookup result into "found or not"
func (s *AuthService) exists(_ *entities.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, entities.ErrUserNotFound) {
		return false, nil
	}
	return false, storageError("lookup user", err)
}
