package repository

import (
	"context"
	"errors"
	"fmt"

	"tunebox/model"

	"gorm.io/gorm"
)

// FavoriteRepository 收藏关系数据访问接口
type FavoriteRepository interface {
	Find(ctx context.Context, userID, songID int64) (*model.Favorite, error)
	Create(ctx context.Context, fav *model.Favorite) error
	Delete(ctx context.Context, id int64) error
	SongIDsForUser(ctx context.Context, userID int64) (map[int64]bool, error)
}

type gormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository 创建 GORM 收藏仓库
func NewGormFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &gormFavoriteRepository{db: db}
}

// Find returns nil, nil when the pair has no favorite row.
func (r *gormFavoriteRepository) Find(ctx context.Context, userID, songID int64) (*model.Favorite, error) {
	var fav model.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND song_id = ?", userID, songID).
		First(&fav).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query favorite: %w", err)
	}
	return &fav, nil
}

// Create 插入收藏记录；唯一索引冲突返回 ErrDuplicateFavorite
func (r *gormFavoriteRepository) Create(ctx context.Context, fav *model.Favorite) error {
	err := r.db.WithContext(ctx).Create(fav).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateFavorite
	}
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

func (r *gormFavoriteRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.Favorite{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete favorite %d: %w", id, err)
	}
	return nil
}

func (r *gormFavoriteRepository) SongIDsForUser(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Pluck("song_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites of user %d: %w", userID, err)
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
