package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/repositories"
	"go.uber.org/zap"
)

type AuthService interface {
	RegisterUser(username, password, email string) (*models.User, error)
	LoginUser(identifier, password string) (string, *models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// RegisterUser 新用户默认是 GUEST，角色只能由超级管理员调整
func (s *authService) RegisterUser(username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 6 {
		return nil, xerr.ErrValidationFailed
	}

	//检查用户名是否存在
	existingUser, err := s.userRepo.GetUserByUsername(username)
	if err != nil && !errors.Is(err, xerr.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if existingUser != nil {
		return nil, xerr.ErrUserAlreadyExists
	}

	//检查邮箱是否存在
	existingUser, err = s.userRepo.GetUserByEmail(email)
	if err != nil && !errors.Is(err, xerr.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existingUser != nil {
		return nil, xerr.ErrEmailAlreadyExists
	}

	//哈希密码
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		Role:         models.RoleGuest,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user in database: %w", err)
	}

	logger.Info("User registered successfully", zap.String("username", user.Username), zap.Uint64("userID", user.ID))
	return user, nil
}

// LoginUser identifier 可以是用户名或邮箱
func (s *authService) LoginUser(identifier, password string) (string, *models.User, error) {
	// 尝试通过用户名查找用户
	user, err := s.userRepo.GetUserByUsername(identifier)
	if err != nil {
		if !errors.Is(err, xerr.ErrUserNotFound) {
			return "", nil, fmt.Errorf("failed to get user by username: %w", err)
		}
		// 继续尝试通过邮箱查找
		user, err = s.userRepo.GetUserByEmail(identifier)
		if err != nil {
			if errors.Is(err, xerr.ErrUserNotFound) {
				// 不区分用户不存在和密码错误
				return "", nil, xerr.ErrInvalidCredentials
			}
			return "", nil, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	//验证密码
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("LoginUser: invalid credentials", zap.Uint64("userID", user.ID))
		return "", nil, xerr.ErrInvalidCredentials
	}

	//生成JWT Token
	tokenString, err := utils.GenerateToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.SecretKey,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.ExpiresIn,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, user, nil
}
