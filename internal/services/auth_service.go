package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/events"
	"moneybook/internal/models"
	"moneybook/internal/tokenstore"
	"moneybook/internal/uuid"
)

const (
	tokenIssuer       = "moneybook-api"
	minPasswordLength = 6
	maxFailedLogins   = 5
	lockoutDuration   = 15 * time.Minute
	defaultSessionTTL = 24 * time.Hour
)

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// authService handles sign-up, sign-in and session checks.
type authService struct {
	db     *gorm.DB
	bus    *events.Bus
	tokens tokenstore.Store
	secret []byte
	ttl    time.Duration
}

// NewAuthService creates a new AuthServicer. Tokens are HS256 JWTs signed
// with secret; signed-out tokens are remembered in tokens until they expire.
func NewAuthService(db *gorm.DB, bus *events.Bus, tokens tokenstore.Store, secret string, ttl time.Duration) AuthServicer {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if tokens == nil {
		tokens = tokenstore.NewMemory()
	}
	return &authService{db: db, bus: bus, tokens: tokens, secret: []byte(secret), ttl: ttl}
}

// Init checks that the backend is reachable.
func (s *authService) Init(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SignUp registers a new user and signs them in.
func (s *authService) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: strings.TrimSpace(displayName),
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		// A concurrent sign-up can pass the count and still lose on the
		// unique email index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	publish(ctx, s.bus, events.UserCreated, user.ID, user.ID)

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.bus, events.SignedIn, user.ID, session.TokenID)
	return session, nil
}

// SignIn verifies the credentials and returns a new session. Repeated
// failures lock the user out for a while.
func (s *authService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now().UTC()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		updates := map[string]any{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["locked_until"] = now.Add(lockoutDuration)
			updates["failed_login_attempts"] = 0
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := db.Model(&user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	session, err := s.issue(&user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.bus, events.SignedIn, user.ID, session.TokenID)
	return session, nil
}

// SignOut revokes the token for the rest of its lifetime.
func (s *authService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.parse(accessToken)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	publish(ctx, s.bus, events.SignedOut, claims.UserID, claims.ID)
	return nil
}

// Session resolves a token into the signed-in user.
func (s *authService) Session(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.parse(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if revoked {
		return nil, apperrors.ErrSessionExpired
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &Session{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		TokenID:     claims.ID,
		User:        &user,
	}, nil
}

// OnAuthStateChange calls fn for every sign-up, sign-in and sign-out until
// the returned function is called.
func (s *authService) OnAuthStateChange(fn func(events.Event)) func() {
	if s.bus == nil {
		return func() {}
	}
	return s.bus.Subscribe(func(ev events.Event) {
		if ev.Type.IsAuth() {
			fn(ev)
		}
	})
}

func (s *authService) issue(user *models.User) (*Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := &JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &Session{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		TokenID:     claims.ID,
		User:        user,
	}, nil
}

func (s *authService) parse(accessToken string) (*JWTClaims, error) {
	if accessToken == "" {
		return nil, apperrors.ErrUnauthorized
	}
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.ErrUnauthorized
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}
