package model

import "time"

// Favorite 用户与歌曲之间的收藏关系，每个 (user, song) 至多一条
type Favorite struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_favorites_user_song,priority:1" json:"userId"`
	SongID    int64     `gorm:"not null;uniqueIndex:idx_favorites_user_song,priority:2;index:idx_favorites_song" json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Song{}, &Favorite{}}
}
