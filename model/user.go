package model

import "time"

// User 由外部身份令牌关联的用户资料，首次访问时创建
type User struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	TokenIdentifier string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_token" json:"tokenIdentifier"`
	FullName        string    `gorm:"type:varchar(255)" json:"fullName"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
