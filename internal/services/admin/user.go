package admin

import (
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/repositories"
	"go.uber.org/zap"
)

type UserService interface {
	GetUserProfile(userID uint64) (*models.User, error)
	// AssignRole 只允许超级管理员调用，新角色在用户下次登录后生效
	AssignRole(actor models.Actor, userID uint64, role models.Role) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUserProfile(userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			logger.Warn("GetUserProfile: User not found", zap.Uint64("userID", userID))
			return nil, err
		}
		logger.Error("GetUserProfile: Error retrieving user from DB",
			zap.Uint64("userID", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

func (s *userService) AssignRole(actor models.Actor, userID uint64, role models.Role) (*models.User, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, xerr.ErrPermissionDenied
	}
	if !role.Valid() {
		return nil, xerr.ErrInvalidParams
	}
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.userRepo.UpdateRole(userID, role); err != nil {
		return nil, xerr.ErrDatabaseError
	}

	logger.Info("AssignRole: user role changed",
		zap.Uint64("userID", userID),
		zap.Stringer("from", user.Role),
		zap.Stringer("to", role),
		zap.Uint64("operatorID", actor.UserID))
	user.Role = role
	return user, nil
}
