package library

import "errors"

// 曲库操作的错误分类，HTTP 层通过 errors.Is 映射状态码
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrFavoriteNotFound = errors.New("favorited file not found")
	ErrAlreadyFavorited = errors.New("file already favorited")
	ErrUploadNotFound   = errors.New("upload not found")
	ErrObjectInUse      = errors.New("storage id already in use")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrRateLimited      = errors.New("too many upload requests")
)
