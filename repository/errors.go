package repository

import "errors"

var (
	// ErrDuplicateUser 同一身份令牌已存在用户记录
	ErrDuplicateUser = errors.New("user already exists for token")
	// ErrDuplicateFavorite 同一 (user, song) 的收藏记录已存在
	ErrDuplicateFavorite = errors.New("favorite already exists")
)
