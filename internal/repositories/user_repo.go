package repositories

import (
	"errors"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint64) (*models.User, error)
	UpdateRole(id uint64, role models.Role) error
}

type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository 创建一个新的 UserRepository 实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Error creating user", zap.String("username", user.Username), zap.Error(err))
		return err
	}
	return nil
}

// 以下查询在用户不存在时都返回 xerr.ErrUserNotFound
func (r *userRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *userRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email)
}

func (r *userRepository) GetUserByID(id uint64) (*models.User, error) {
	return r.first("id = ?", id)
}

func (r *userRepository) first(query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) { // 使用 errors.Is 更安全
			return nil, xerr.ErrUserNotFound
		}
		logger.Error("Error getting user", zap.String("query", query), zap.Any("arg", arg), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateRole(id uint64, role models.Role) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		logger.Error("Error updating user role", zap.Uint64("userID", id), zap.Error(result.Error))
		return result.Error
	}
	return nil
}
