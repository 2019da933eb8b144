package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the identity collaborator: it owns credentials and turns
// bearer tokens into actors. The lifecycle engine never sees either.
type AuthService struct {
	users      store.UserStore
	secret     []byte
	ttl        time.Duration
	secretCode string
	now        func() time.Time
	logger     *zap.SugaredLogger
}

// NewAuthService creates a new auth service. secretCode gates staff
// self-registration.
func NewAuthService(users store.UserStore, jwtSecret string, ttl time.Duration, secretCode string, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{
		users:      users,
		secret:     []byte(jwtSecret),
		ttl:        ttl,
		secretCode: secretCode,
		now:        time.Now,
		logger:     logger,
	}
}

// Claims are the JWT claims issued at login
type Claims struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// RegisterInput is the staff self-registration form
type RegisterInput struct {
	FullName        string `json:"full_name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	NoHP            string `json:"no_hp" validate:"max=30"`
	SecretCode      string `json:"secret_code" validate:"required"`
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register creates a petugas account for someone holding the village code
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := lifecycle.CheckStruct(in); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(in.SecretCode), []byte(s.secretCode)) != 1 {
		return nil, &lifecycle.ValidationError{Field: "secret_code", Message: "wrong village secret code"}
	}

	u := &models.User{
		FullName:  in.FullName,
		Email:     in.Email,
		Role:      models.RolePetugas,
		NoHP:      optional(in.NoHP),
		CreatedAt: s.now().UTC(),
	}
	if err := s.createUser(ctx, u, in.Password); err != nil {
		return nil, err
	}
	s.logger.Infow("Staff registered", "id", u.ID, "email", u.Email)
	return u, nil
}

// Login verifies credentials and issues a token. Resident accounts cannot
// log in: residents file and follow complaints by ticket.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, &AuthError{Reason: "invalid email or password"}
	}
	if err != nil {
		return nil, storeErr("get user", "user", email, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.logger.Infow("Login rejected", "email", u.Email)
		return nil, &AuthError{Reason: "invalid email or password"}
	}
	if !u.Role.IsStaff() {
		return nil, &lifecycle.ForbiddenError{Role: u.Role, Action: "log in; residents file complaints without an account"}
	}

	token, expires, err := s.IssueToken(*u)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Login succeeded", "email", u.Email, "role", u.Role)
	return &LoginResult{Token: token, ExpiresAt: expires, User: *u}, nil
}

// IssueToken signs an HS256 token for u
func (s *AuthService) IssueToken(u models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Email: u.Email,
		Name:  u.FullName,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Authenticate turns a bearer token into the actor it was issued to
func (s *AuthService) Authenticate(tokenStr string) (models.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return models.Actor{}, &AuthError{Reason: "invalid or expired token"}
	}
	if !claims.Role.IsValid() {
		return models.Actor{}, &AuthError{Reason: "token carries an unknown role"}
	}
	return models.Actor{Role: claims.Role, Email: claims.Email, Name: claims.Name}, nil
}

func (s *AuthService) createUser(ctx context.Context, u *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return &lifecycle.ValidationError{Field: "password", Message: err.Error()}
	}
	u.PasswordHash = string(hash)

	err = s.users.InsertUser(ctx, u)
	if errors.Is(err, store.ErrDuplicateEmail) {
		return &lifecycle.ValidationError{Field: "email", Message: "email is already registered"}
	}
	if err != nil {
		return storeErr("insert user", "user", u.Email, err)
	}
	return nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
