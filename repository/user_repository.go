package repository

import (
	"context"
	"errors"
	"fmt"

	"tunebox/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	GetByToken(ctx context.Context, tokenIdentifier string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateFullName(ctx context.Context, id int64, fullName string) error
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建 GORM 用户仓库
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// GetByToken returns nil, nil when no row carries the token.
func (r *gormUserRepository) GetByToken(ctx context.Context, tokenIdentifier string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("token_identifier = ?", tokenIdentifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by token: %w", err)
	}
	return &user, nil
}

// GetByIDs 批量获取用户，缺失的 ID 不出现在结果中
func (r *gormUserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	out := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *gormUserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *gormUserRepository) UpdateFullName(ctx context.Context, id int64, fullName string) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("full_name", fullName).Error
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return nil
}
