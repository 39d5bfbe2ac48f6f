package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoapp/internal/apperrors"
	"todoapp/internal/logging"
	"todoapp/internal/models"
	"todoapp/internal/repositories"
	"todoapp/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// errInvalidCredentials is shared by every login failure so the response never
// reveals whether the account exists.
const errInvalidCredentials = "Invalid credentials"

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the payload of a login. Accounts are identified by username.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Claims are the JWT claims issued by AuthService. Subject holds the user ID.
type Claims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// AuthOptions tunes hashing and token issuance.
type AuthOptions struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	validate   *validation.Validator
	logger     logging.Logger
	jwtSecret  []byte
	issuer     string
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService. Zero TokenTTL and BcryptCost fall
// back to 24h and bcrypt.DefaultCost.
func NewAuthService(userRepo repositories.UserRepository, opts AuthOptions, logger logging.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		validate:   validation.New(),
		logger:     logger.With("component", "auth"),
		jwtSecret:  []byte(opts.JWTSecret),
		issuer:     opts.Issuer,
		tokenTTL:   opts.TokenTTL,
		bcryptCost: opts.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a user with a bcrypt-hashed password and issues a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registration attempt", "username", in.Username)

	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		s.logger.Info(ctx, "registration failed: user already exists", "username", in.Username)
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.Validation("Validation failed", map[string]string{"password": "Field 'password' must be at most 72 bytes"})
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
	}
	// The unique indexes still guard against a concurrent registration.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperrors.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	lookups := []struct {
		find    func(context.Context, string) (*models.User, error)
		value   string
		message string
	}{
		{s.userRepo.GetByUsername, username, fmt.Sprintf("username '%s' already taken", username)},
		{s.userRepo.GetByEmail, email, fmt.Sprintf("email '%s' already registered", email)},
	}

	for _, l := range lookups {
		existing, err := l.find(ctx, l.value)
		switch {
		case err == nil && existing != nil:
			return apperrors.Conflict(l.message, nil)
		case err != nil && !apperrors.IsNotFound(err):
			return fmt.Errorf("failed to check existing users: %w", err)
		}
	}
	return nil
}

// Login verifies the username and password and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user login attempt", "username", in.Username)

	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Info(ctx, "login failed: user not found", "username", in.Username)
			return nil, apperrors.Unauthorized(errInvalidCredentials, nil)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		s.logger.Info(ctx, "login failed: invalid password", "username", in.Username)
		return nil, apperrors.Unauthorized(errInvalidCredentials, nil)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user login successful", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ParseToken checks the signature and expiry of tokenString and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperrors.Unauthorized("Invalid or expired token", nil)
	}
	return claims, nil
}

// ValidateToken resolves a token to the user it was issued for. It fails
// with an unauthorized error when the token is invalid or expired, or when
// that user no longer exists.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Info(ctx, "user validation failed: user not found", "user_id", claims.Subject)
			return nil, apperrors.Unauthorized("User not found", err)
		}
		return nil, fmt.Errorf("failed to resolve token user: %w", err)
	}
	return user, nil
}

// IsTokenExpired reports whether err came from a token whose exp has passed.
func IsTokenExpired(err error) bool {
	var ve *jwt.ValidationError
	return errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0
}
