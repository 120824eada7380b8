package model

import "time"

// Song 曲库中的一首歌，音频和封面以对象存储引用保存
type Song struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	OwnerID     int64     `gorm:"not null;index:idx_songs_owner" json:"ownerId"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	SongObject  string    `gorm:"type:varchar(512);not null" json:"song"`
	ImageObject *string   `gorm:"type:varchar(512)" json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ObjectRefs returns every object-store reference the song holds.
func (s *Song) ObjectRefs() []string {
	refs := []string{s.SongObject}
	if s.ImageObject != nil && *s.ImageObject != "" {
		refs = append(refs, *s.ImageObject)
	}
	return refs
}

// SongWithURLs 列表接口返回的歌曲，附带解析后的播放地址、所有者和收藏状态
type SongWithURLs struct {
	Song
	SongURL  string  `json:"songUrl"`
	ImageURL *string `json:"imageUrl"`
	Owner    *User   `json:"owner"`
	Favorite bool    `json:"favorite"`
}
