package library

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tunebox/config"
	"tunebox/core/auth"
	"tunebox/core/events"
	"tunebox/logger"
	"tunebox/model"
	"tunebox/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadPrefix 所有上传对象的键前缀，其下按用户 ID 分目录
const UploadPrefix = "uploads/"

// UserUploadPrefix is the key prefix of objects uploaded by userID.
func UserUploadPrefix(userID int64) string {
	return UploadPrefix + strconv.FormatInt(userID, 10) + "/"
}

const (
	defaultSignedURLTTL = time.Hour
	defaultUploadURLTTL = 15 * time.Minute
	// cached URLs expire this long before the signature does
	urlCacheMargin = time.Minute
	anonymousName  = "Anonymous"
)

// ObjectStore is the object-storage surface the library needs.
type ObjectStore interface {
	NewUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}

// ObjectLister lists bucket contents for orphan reaping.
type ObjectLister interface {
	ListObjects(ctx context.Context, prefix string) ([]model.StoredObject, error)
}

// URLCache caches presigned URLs by object key.
type URLCache interface {
	Get(ctx context.Context, objectKey string) (string, bool, error)
	Set(ctx context.Context, objectKey, url string, ttl time.Duration) error
	Delete(ctx context.Context, objectKeys ...string) error
}

// Notifier receives library change events.
type Notifier interface {
	Publish(e events.Event)
}

// Deps 曲库服务依赖，URLCache 和 Notifier 可以为空
type Deps struct {
	Users     repository.UserRepository
	Songs     repository.SongRepository
	Favorites repository.FavoriteRepository
	Objects   ObjectStore
	URLCache  URLCache
	Notifier  Notifier
	Policy    auth.Policy
}

// Options 曲库服务行为参数
type Options struct {
	FavoriteKeying   string
	SignedURLTTL     time.Duration
	UploadURLTTL     time.Duration
	UploadRatePerMin int
}

// OptionsFromConfig maps application config onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FavoriteKeying:   cfg.FavoriteKeying,
		SignedURLTTL:     cfg.SignedURLTTL,
		UploadURLTTL:     cfg.UploadURLTTL,
		UploadRatePerMin: cfg.UploadRatePerMin,
	}
}

// Service implements the library operations. Every operation takes the
// caller identity explicitly; a nil identity is rejected with ErrUnauthorized.
type Service struct {
	users     repository.UserRepository
	songs     repository.SongRepository
	favorites repository.FavoriteRepository
	objects   ObjectStore
	urls      URLCache
	notifier  Notifier
	policy    auth.Policy
	limiter   *keyedLimiter

	keyOnOwner bool
	signedTTL  time.Duration
	uploadTTL  time.Duration
	newKey     func(userID int64) string
}

// NewService 创建曲库服务
func NewService(d Deps, o Options) *Service {
	s := &Service{
		users:      d.Users,
		songs:      d.Songs,
		favorites:  d.Favorites,
		objects:    d.Objects,
		urls:       d.URLCache,
		notifier:   d.Notifier,
		policy:     d.Policy,
		limiter:    newKeyedLimiter(o.UploadRatePerMin),
		keyOnOwner: o.FavoriteKeying == config.FavoriteKeyingOwner,
		signedTTL:  o.SignedURLTTL,
		uploadTTL:  o.UploadURLTTL,
		newKey:     func(userID int64) string { return UserUploadPrefix(userID) + uuid.NewString() },
	}
	if s.policy == nil {
		s.policy = auth.OwnerPolicy{}
	}
	if s.signedTTL <= 0 {
		s.signedTTL = defaultSignedURLTTL
	}
	if s.uploadTTL <= 0 {
		s.uploadTTL = defaultUploadURLTTL
	}
	return s
}

func (s *Service) currentUser(ctx context.Context, id *auth.Identity) (*model.User, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByToken(ctx, id.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) songByID(ctx context.Context, songID int64) (*model.Song, error) {
	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrFileNotFound
	}
	return song, nil
}

func (s *Service) publish(t events.EventType, songID int64) {
	if s.notifier != nil {
		s.notifier.Publish(events.Event{Type: t, SongID: songID})
	}
}

// StoreUser 首次访问时创建用户资料，之后同步显示名
func (s *Service) StoreUser(ctx context.Context, id *auth.Identity) (*model.User, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	name := strings.TrimSpace(id.Name)

	user, err := s.users.GetByToken(ctx, id.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if name != "" && name != user.FullName {
			if err := s.users.UpdateFullName(ctx, user.ID, name); err != nil {
				return nil, err
			}
			user.FullName = name
		}
		return user, nil
	}

	if name == "" {
		name = anonymousName
	}
	user = &model.User{TokenIdentifier: id.TokenIdentifier, FullName: name}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		// a concurrent first visit won the insert
		return s.currentUser(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("[Library] user created", logger.Int64("userId", user.ID))
	return user, nil
}

// List 返回全部歌曲，附带播放地址、封面地址、所有者和调用者的收藏状态
func (s *Service) List(ctx context.Context, id *auth.Identity) ([]*model.SongWithURLs, error) {
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return nil, err
	}

	songs, err := s.songs.List(ctx)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]int64, 0, len(songs))
	seen := make(map[int64]bool, len(songs))
	for _, song := range songs {
		if !seen[song.OwnerID] {
			seen[song.OwnerID] = true
			ownerIDs = append(ownerIDs, song.OwnerID)
		}
	}
	owners, err := s.users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	favorites, err := s.favorites.SongIDsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.SongWithURLs, 0, len(songs))
	for _, song := range songs {
		songURL, err := s.resolveURL(ctx, song.SongObject)
		if err != nil {
			return nil, err
		}
		item := &model.SongWithURLs{
			Song:     *song,
			SongURL:  songURL,
			Owner:    owners[song.OwnerID],
			Favorite: favorites[song.ID],
		}
		if song.ImageObject != nil && *song.ImageObject != "" {
			imageURL, err := s.resolveURL(ctx, *song.ImageObject)
			if err != nil {
				return nil, err
			}
			item.ImageURL = &imageURL
		}
		out = append(out, item)
	}
	return out, nil
}

// resolveURL signs key, serving from the URL cache while a signature is fresh.
func (s *Service) resolveURL(ctx context.Context, key string) (string, error) {
	if s.urls != nil {
		if cached, ok, err := s.urls.Get(ctx, key); err != nil {
			logger.Warn("[Library] url cache read failed", logger.String("key", key), logger.ErrorField(err))
		} else if ok {
			return cached, nil
		}
	}

	signed, err := s.objects.SignedURL(ctx, key, s.signedTTL)
	if err != nil {
		return "", err
	}

	if s.urls != nil {
		if err := s.urls.Set(ctx, key, signed, s.signedTTL-urlCacheMargin); err != nil {
			logger.Warn("[Library] url cache write failed", logger.String("key", key), logger.ErrorField(err))
		}
	}
	return signed, nil
}

// GenerateUploadURL 生成一次性上传地址和对应的对象引用
func (s *Service) GenerateUploadURL(ctx context.Context, id *auth.Identity) (*model.UploadTicket, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	if !s.limiter.Allow(id.TokenIdentifier) {
		return nil, ErrRateLimited
	}
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return nil, err
	}

	key := s.newKey(user.ID)
	uploadURL, err := s.objects.NewUploadURL(ctx, key, s.uploadTTL)
	if err != nil {
		return nil, err
	}
	return &model.UploadTicket{
		UploadURL: uploadURL,
		StorageID: key,
		ExpiresAt: time.Now().Add(s.uploadTTL),
	}, nil
}

// checkUpload validates that ref is one of the caller's own finished uploads
// and that no song already holds it.
func (s *Service) checkUpload(ctx context.Context, user *model.User, ref string) error {
	prefix := UserUploadPrefix(user.ID)
	if !strings.HasPrefix(ref, prefix) || len(ref) == len(prefix) || strings.Contains(ref, "..") {
		return fmt.Errorf("%w: storage id %q was not issued to this user", ErrInvalidArgument, ref)
	}
	used, err := s.songs.IsReferenced(ctx, ref)
	if err != nil {
		return err
	}
	if used {
		return ErrObjectInUse
	}
	ok, err := s.objects.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUploadNotFound
	}
	return nil
}

// RegisterSongUpload 为已完成上传的音频创建歌曲记录，返回新歌曲 ID
func (s *Service) RegisterSongUpload(ctx context.Context, id *auth.Identity, ref, title string) (int64, error) {
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return 0, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if err := s.checkUpload(ctx, user, ref); err != nil {
		return 0, err
	}

	song := &model.Song{OwnerID: user.ID, Title: title, SongObject: ref}
	if err := s.songs.Create(ctx, song); err != nil {
		return 0, err
	}

	logger.Info("[Library] song registered",
		logger.Int64("songId", song.ID),
		logger.Int64("ownerId", user.ID),
		logger.String("title", title))
	s.publish(events.SongAdded, song.ID)
	return song.ID, nil
}

// RegisterImageUpload 为歌曲设置封面，旧封面对象会被回收
func (s *Service) RegisterImageUpload(ctx context.Context, id *auth.Identity, ref string, songID int64) (*model.Song, error) {
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	song, err := s.songByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(id, user, song, auth.ActionAttachImage) {
		return nil, ErrForbidden
	}
	if song.ImageObject != nil && *song.ImageObject == ref {
		return song, nil
	}
	if err := s.checkUpload(ctx, user, ref); err != nil {
		return nil, err
	}

	if err := s.songs.UpdateImage(ctx, song.ID, ref); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	previous := song.ImageObject
	song.ImageObject = &ref
	if previous != nil && *previous != "" && *previous != ref {
		s.reclaim(ctx, song.ID, *previous)
	}

	s.publish(events.SongUpdated, song.ID)
	return song, nil
}

// favoriteOwner resolves whose favorite row an operation touches.
func (s *Service) favoriteOwner(ctx context.Context, id *auth.Identity, song *model.Song) (int64, error) {
	if s.keyOnOwner {
		return song.OwnerID, nil
	}
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Favorite 收藏歌曲；同一 (user, song) 重复收藏返回 ErrAlreadyFavorited
func (s *Service) Favorite(ctx context.Context, id *auth.Identity, songID int64) (*model.Song, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	song, err := s.songByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	userID, err := s.favoriteOwner(ctx, id, song)
	if err != nil {
		return nil, err
	}

	existing, err := s.favorites.Find(ctx, userID, song.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyFavorited
	}

	err = s.favorites.Create(ctx, &model.Favorite{UserID: userID, SongID: song.ID})
	if errors.Is(err, repository.ErrDuplicateFavorite) {
		return nil, ErrAlreadyFavorited
	}
	if err != nil {
		return nil, err
	}

	s.publish(events.FavoriteChanged, song.ID)
	return song, nil
}

// Unfavorite 取消收藏；没有收藏记录时返回 ErrFavoriteNotFound
func (s *Service) Unfavorite(ctx context.Context, id *auth.Identity, songID int64) (*model.Song, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	song, err := s.songByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	userID, err := s.favoriteOwner(ctx, id, song)
	if err != nil {
		return nil, err
	}

	existing, err := s.favorites.Find(ctx, userID, song.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrFavoriteNotFound
	}
	if err := s.favorites.Delete(ctx, existing.ID); err != nil {
		return nil, err
	}

	s.publish(events.FavoriteChanged, song.ID)
	return song, nil
}

// GetFavoriteStatus reports whether the caller has favorited songID.
func (s *Service) GetFavoriteStatus(ctx context.Context, id *auth.Identity, songID int64) (bool, error) {
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return false, err
	}
	fav, err := s.favorites.Find(ctx, user.ID, songID)
	if err != nil {
		return false, err
	}
	return fav != nil, nil
}

// DeleteSong 删除歌曲及其收藏记录，并回收音频和封面对象
func (s *Service) DeleteSong(ctx context.Context, id *auth.Identity, songID int64) (*model.Song, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	song, err := s.songByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	// a caller without a profile row can still pass an admin check
	caller, err := s.users.GetByToken(ctx, id.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(id, caller, song, auth.ActionDelete) {
		return nil, ErrForbidden
	}

	if err := s.songs.DeleteCascade(ctx, song.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	s.reclaim(ctx, song.ID, song.ObjectRefs()...)
	logger.Info("[Library] song deleted", logger.Int64("songId", song.ID))
	s.publish(events.SongDeleted, song.ID)
	return song, nil
}

// reclaim removes objects after their rows are gone. Keys another song still
// holds are kept. Failures are logged; ReapOrphans picks up whatever is left.
func (s *Service) reclaim(ctx context.Context, songID int64, keys ...string) {
	for _, key := range keys {
		used, err := s.songs.IsReferenced(ctx, key)
		if err != nil || used {
			logger.Warn("[Library] object still referenced, not reclaimed",
				logger.Int64("songId", songID),
				logger.String("key", key),
				logger.ErrorField(err))
			continue
		}
		if err := s.objects.Remove(ctx, key); err != nil {
			logger.Warn("[Library] failed to reclaim object",
				logger.Int64("songId", songID),
				logger.String("key", key),
				logger.ErrorField(err))
		}
	}
	if s.urls != nil {
		if err := s.urls.Delete(ctx, keys...); err != nil {
			logger.Warn("[Library] url cache eviction failed", logger.ErrorField(err))
		}
	}
}

// ReapOrphans removes uploaded objects that no song references and that are
// older than olderThan. With dryRun it only reports them.
func (s *Service) ReapOrphans(ctx context.Context, lister ObjectLister, olderThan time.Duration, dryRun bool) ([]string, error) {
	objects, err := lister.ListObjects(ctx, UploadPrefix)
	if err != nil {
		return nil, err
	}
	refs, err := s.songs.ReferencedObjects(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)
	var orphans []string
	for _, obj := range objects {
		if _, used := refs[obj.Key]; used || obj.LastModified.After(cutoff) {
			continue
		}
		orphans = append(orphans, obj.Key)
		if dryRun {
			continue
		}
		if err := s.objects.Remove(ctx, obj.Key); err != nil {
			return orphans, err
		}
	}
	logger.Info("[Library] orphan reap finished",
		logger.Int("orphans", len(orphans)),
		logger.Duration("olderThan", olderThan),
		logger.Bool("dryRun", dryRun))
	return orphans, nil
}
