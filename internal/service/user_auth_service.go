package service

import (
	"context"
	"errors"
	"time"

	"github.com/imobiliare-next/internal/cache"
	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const defaultUserJWTExpireHours = 24

// UserAuthService 用户令牌服务（身份由外部提供方完成校验后换发）
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	cache    *cache.Store
}

// NewUserAuthService 创建用户令牌服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, store *cache.Store) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo, cache: store}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	FirebaseUID string `json:"uid"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	hours := s.cfg.UserJWT.ExpireHours
	if hours <= 0 {
		hours = defaultUserJWTExpireHours
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := UserJWTClaims{
		UserID:      user.ID,
		Email:       user.Email,
		FirebaseUID: user.FirebaseUID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ResolveUserState 获取用户鉴权状态并校验账号可用
func (s *UserAuthService) ResolveUserState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, ok, err := s.cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.Warnw("user_auth_state_cache_read_failed", "user_id", userID, "error", err)
	}
	if !ok {
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUnauthorized
		}
		state = cache.BuildUserAuthState(user)
		_ = s.cache.SetUserAuthState(ctx, state)
	}
	if state.Status != "" && state.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	return state, nil
}
