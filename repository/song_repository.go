package repository

import (
	"context"
	"errors"
	"fmt"

	"tunebox/model"

	"gorm.io/gorm"
)

// SongRepository 歌曲数据访问接口
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id int64) (*model.Song, error)
	List(ctx context.Context) ([]*model.Song, error)
	UpdateImage(ctx context.Context, id int64, imageObject string) error
	// DeleteCascade removes the song and every favorite that points at it.
	DeleteCascade(ctx context.Context, id int64) error
	ReferencedObjects(ctx context.Context) (map[string]struct{}, error)
	// IsReferenced reports whether any song uses key as its audio or cover.
	IsReferenced(ctx context.Context, key string) (bool, error)
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository 创建 GORM 歌曲仓库
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	if err := r.db.WithContext(ctx).Create(song).Error; err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the song does not exist.
func (r *gormSongRepository) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).First(&song, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query song %d: %w", id, err)
	}
	return &song, nil
}

// List 按创建顺序返回全部歌曲
func (r *gormSongRepository) List(ctx context.Context) ([]*model.Song, error) {
	var songs []*model.Song
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) UpdateImage(ctx context.Context, id int64, imageObject string) error {
	res := r.db.WithContext(ctx).Model(&model.Song{}).
		Where("id = ?", id).
		Update("image_object", imageObject)
	if res.Error != nil {
		return fmt.Errorf("failed to update image of song %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormSongRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", id).Delete(&model.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites of song %d: %w", id, err)
		}
		res := tx.Delete(&model.Song{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete song %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReferencedObjects 返回所有歌曲引用的对象键（音频与封面）
func (r *gormSongRepository) ReferencedObjects(ctx context.Context) (map[string]struct{}, error) {
	var songs []*model.Song
	err := r.db.WithContext(ctx).
		Select("song_object", "image_object").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load object references: %w", err)
	}
	refs := make(map[string]struct{}, len(songs)*2)
	for _, s := range songs {
		for _, ref := range s.ObjectRefs() {
			refs[ref] = struct{}{}
		}
	}
	return refs, nil
}

func (r *gormSongRepository) IsReferenced(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Song{}).
		Where("song_object = ? OR image_object = ?", key, key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check references of %s: %w", key, err)
	}
	return count > 0, nil
}
