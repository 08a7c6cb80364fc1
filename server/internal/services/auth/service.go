package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/helpers"
	"github.com/wat40/C-Encryption-System/server/internal/storage"
)

var (
	ErrEmptyCredentials   = errors.New("username and password cannot be empty")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service implements authentication logic
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	store     Store
	log       *helpers.Logger
}

// Store defines the persistence interface
type Store interface {
	CreateUser(username, hashedPassword string) (int64, error)
	GetUserByUsername(username string) (*storage.User, error)
	GetUserByID(userID int64) (*storage.User, error)
}

// Claims represents JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

// New creates a new auth service
func New(jwtSecret string, tokenTTL time.Duration, store Store) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		store:     store,
		log:       helpers.NewLogger("AuthService"),
	}
}

// Register creates a new user account
func (s *Service) Register(username, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, ErrEmptyCredentials
	}
	if err := helpers.ValidateUsername(username); err != nil {
		return 0, err
	}

	existing, err := s.store.GetUserByUsername(username)
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return 0, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.store.CreateUser(username, string(hashed))
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", userID)
	return userID, nil
}

// Login authenticates a user and returns a JWT token and the user's ID
func (s *Service) Login(username, password string) (string, int64, error) {
	if username == "" || password == "" {
		return "", 0, ErrEmptyCredentials
	}

	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		return "", 0, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !verifyPassword(password, user.HashedPassword) {
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.CreateToken(user.ID, user.Username)
	if err != nil {
		return "", 0, err
	}
	return token, user.ID, nil
}

// CreateToken creates a new JWT token for a user
func (s *Service) CreateToken(userID int64, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates and parses a JWT token
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// verifyPassword verifies a password against its bcrypt hash
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
