package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/ngenohkevin/lmsdesk/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidPassword    = errors.New("invalid password format")
	ErrMissingSecret      = errors.New("jwt secret is not configured")
)

type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
	BlacklistToken(ctx context.Context, tokenString string) error
}

// AuthService guards the admin dashboard. There is a single configured
// administrator; patrons never log in here.
type AuthService struct {
	secret        []byte
	tokenExpiry   time.Duration
	adminUsername string
	adminHash     string
	argon2Config  *Argon2Config
	logger        *slog.Logger
	redisClient   *redis.Client
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func DefaultArgon2Config() *Argon2Config {
	return &Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type AuthOptions struct {
	Secret            string
	TokenExpiry       time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

func NewAuthService(opts AuthOptions, logger *slog.Logger, redisClient *redis.Client) (*AuthService, error) {
	if opts.Secret == "" {
		return nil, ErrMissingSecret
	}
	if opts.TokenExpiry <= 0 {
		opts.TokenExpiry = 24 * time.Hour
	}

	return &AuthService{
		secret:        []byte(opts.Secret),
		tokenExpiry:   opts.TokenExpiry,
		adminUsername: opts.AdminUsername,
		adminHash:     opts.AdminPasswordHash,
		argon2Config:  DefaultArgon2Config(),
		logger:        logger,
		redisClient:   redisClient,
	}, nil
}

// HashPassword produces an encoded argon2id hash suitable for the
// auth.admin_password_hash setting.
func HashPassword(password string, cfg *Argon2Config) (string, error) {
	if len(password) < 8 {
		return "", ErrInvalidPassword
	}

	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		cfg.Memory,
		cfg.Iterations,
		cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks password against an encoded argon2id hash.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, errors.New("invalid hash type")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return false, errors.New("incompatible argon2 version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("error decoding salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("error decoding hash: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	return HashPassword(password, s.argon2Config)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	if s.adminHash == "" || username != s.adminUsername {
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(s.adminHash, password)
	if err != nil {
		s.logger.Error("Configured admin password hash is unreadable", "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Warn("Failed admin login", "username", username)
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin logged in", "username", username)
	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenExpiry.Seconds()),
	}, nil
}

// GenerateToken signs an HS256 admin token for username.
func (s *AuthService) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		Username: username,
		Role:     models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parse(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		blacklisted, err := s.redisClient.Exists(ctx, blacklistKey(claims.ID)).Result()
		if err != nil {
			// Continue validation if Redis is down
			s.logger.Error("Failed to check token blacklist", "error", err)
		}
		if blacklisted > 0 {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// BlacklistToken revokes a token until its natural expiry.
func (s *AuthService) BlacklistToken(ctx context.Context, tokenString string) error {
	if s.redisClient == nil {
		return errors.New("redis client not configured")
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}

	expiry := time.Until(claims.ExpiresAt.Time)
	if expiry <= 0 {
		return nil
	}

	if err := s.redisClient.Set(ctx, blacklistKey(claims.ID), "1", expiry).Err(); err != nil {
		s.logger.Error("Failed to blacklist token", "error", err)
		return err
	}

	s.logger.Info("Token blacklisted", "username", claims.Username)
	return nil
}

func blacklistKey(tokenID string) string {
	return "lmsdesk:blacklist:" + tokenID
}
