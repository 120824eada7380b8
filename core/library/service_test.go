package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"tunebox/config"
	"tunebox/core/auth"
	"tunebox/core/events"
	"tunebox/db"
	"tunebox/model"
	"tunebox/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]time.Time
	removed []string
	signed  int
	failRm  bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string]time.Time)}
}

func (f *fakeObjects) put(key string, modified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = modified
}

func (f *fakeObjects) NewUploadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/put/" + key, nil
}

func (f *fakeObjects) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signed++
	return "https://objects.test/get/" + key, nil
}

func (f *fakeObjects) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjects) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRm {
		return errors.New("storage unavailable")
	}
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjects) ListObjects(_ context.Context, _ string) ([]model.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.StoredObject, 0, len(f.objects))
	for k, m := range f.objects {
		out = append(out, model.StoredObject{Key: k, LastModified: m})
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, url string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = url
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc       *Service
	objects   *fakeObjects
	cache     *fakeCache
	events    *recorder
	songs     repository.SongRepository
	favorites repository.FavoriteRepository
}

func newFixture(t *testing.T, opts Options, policy auth.Policy) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.OpenSQLite(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	t.Cleanup(func() { _ = db.CloseGormDB(gdb) })

	f := &fixture{
		objects:   newFakeObjects(),
		cache:     &fakeCache{entries: make(map[string]string)},
		events:    &recorder{},
		songs:     repository.NewGormSongRepository(gdb),
		favorites: repository.NewGormFavoriteRepository(gdb),
	}
	f.svc = NewService(Deps{
		Users:     repository.NewGormUserRepository(gdb),
		Songs:     f.songs,
		Favorites: f.favorites,
		Objects:   f.objects,
		URLCache:  f.cache,
		Notifier:  f.events,
		Policy:    policy,
	}, opts)
	return f
}

func identity(sub, name string) *auth.Identity {
	return &auth.Identity{TokenIdentifier: auth.TokenIdentifier("https://id.test", sub), Subject: sub, Name: name}
}

// upload mints an upload ticket and marks the object as uploaded.
func (f *fixture) upload(t *testing.T, id *auth.Identity) string {
	t.Helper()
	ticket, err := f.svc.GenerateUploadURL(context.Background(), id)
	require.NoError(t, err)
	f.objects.put(ticket.StorageID, time.Now())
	return ticket.StorageID
}

func (f *fixture) addSong(t *testing.T, id *auth.Identity, title string) int64 {
	t.Helper()
	songID, err := f.svc.RegisterSongUpload(context.Background(), id, f.upload(t, id), title)
	require.NoError(t, err)
	return songID
}

func findSong(list []*model.SongWithURLs, id int64) *model.SongWithURLs {
	for _, s := range list {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func TestService_UploadFavoriteScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")

	user, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FullName)

	songID := f.addSong(t, alice, "Intro")

	list, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Intro", list[0].Title)
	assert.False(t, list[0].Favorite)
	assert.Nil(t, list[0].ImageURL)
	assert.Contains(t, list[0].SongURL, list[0].SongObject)
	require.NotNil(t, list[0].Owner)
	assert.Equal(t, user.ID, list[0].Owner.ID)

	_, err = f.svc.Favorite(ctx, alice, songID)
	require.NoError(t, err)

	list, err = f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.True(t, list[0].Favorite)

	fav, err := f.svc.GetFavoriteStatus(ctx, alice, songID)
	require.NoError(t, err)
	assert.True(t, fav)

	_, err = f.svc.Favorite(ctx, alice, songID)
	assert.ErrorIs(t, err, ErrAlreadyFavorited)

	_, err = f.svc.Unfavorite(ctx, alice, songID)
	require.NoError(t, err)
	_, err = f.svc.Unfavorite(ctx, alice, songID)
	assert.ErrorIs(t, err, ErrFavoriteNotFound)

	assert.Equal(t, []events.EventType{
		events.SongAdded, events.FavoriteChanged, events.FavoriteChanged,
	}, f.events.types())
}

func TestService_RequiresIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)

	_, err := f.svc.StoreUser(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.List(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.GenerateUploadURL(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.RegisterSongUpload(ctx, nil, "uploads/x", "t")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.RegisterImageUpload(ctx, nil, "uploads/x", 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Favorite(ctx, nil, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Unfavorite(ctx, nil, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.GetFavoriteStatus(ctx, nil, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.DeleteSong(ctx, nil, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_UnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	ghost := identity("ghost", "")

	_, err := f.svc.List(ctx, ghost)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.svc.RegisterSongUpload(ctx, ghost, "uploads/x", "t")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.svc.GetFavoriteStatus(ctx, ghost, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.svc.GenerateUploadURL(ctx, ghost)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_StoreUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)

	anon, err := f.svc.StoreUser(ctx, identity("anon", "  "))
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", anon.FullName)

	first, err := f.svc.StoreUser(ctx, identity("bob", "Bob"))
	require.NoError(t, err)
	again, err := f.svc.StoreUser(ctx, identity("bob", "Robert"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Robert", again.FullName)

	kept, err := f.svc.StoreUser(ctx, identity("bob", ""))
	require.NoError(t, err)
	assert.Equal(t, "Robert", kept.FullName)
}

func TestService_RegisterSongUploadValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")
	user, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)
	other, err := f.svc.StoreUser(ctx, identity("bob", "Bob"))
	require.NoError(t, err)

	ref := f.upload(t, alice)
	assert.True(t, strings.HasPrefix(ref, UserUploadPrefix(user.ID)))
	bobs := UserUploadPrefix(other.ID) + uuid.NewString()
	f.objects.put(bobs, time.Now())

	tests := []struct {
		name  string
		ref   string
		title string
		want  error
	}{
		{"blank title", ref, "   ", ErrInvalidArgument},
		{"foreign prefix", "songs/abc", "t", ErrInvalidArgument},
		{"bare prefix", UserUploadPrefix(user.ID), "t", ErrInvalidArgument},
		{"unscoped key", "uploads/" + uuid.NewString(), "t", ErrInvalidArgument},
		{"another user's upload", bobs, "t", ErrInvalidArgument},
		{"traversal", UserUploadPrefix(user.ID) + "../secret", "t", ErrInvalidArgument},
		{"never uploaded", UserUploadPrefix(user.ID) + uuid.NewString(), "t", ErrUploadNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RegisterSongUpload(ctx, alice, tt.ref, tt.title)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	id, err := f.svc.RegisterSongUpload(ctx, alice, ref, "  Trimmed  ")
	require.NoError(t, err)
	_, err = f.svc.RegisterSongUpload(ctx, alice, ref, "Again")
	assert.ErrorIs(t, err, ErrObjectInUse)
	list, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Trimmed", findSong(list, id).Title)
}

func TestService_RegisterImageUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, auth.DefaultPolicy(nil))
	alice := identity("alice", "Alice")
	bob := identity("bob", "Bob")
	for _, id := range []*auth.Identity{alice, bob} {
		_, err := f.svc.StoreUser(ctx, id)
		require.NoError(t, err)
	}
	songID := f.addSong(t, alice, "Cover me")

	_, err := f.svc.RegisterImageUpload(ctx, alice, f.upload(t, alice), 9999)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = f.svc.RegisterImageUpload(ctx, bob, f.upload(t, bob), songID)
	assert.ErrorIs(t, err, ErrForbidden)

	first := f.upload(t, alice)
	song, err := f.svc.RegisterImageUpload(ctx, alice, first, songID)
	require.NoError(t, err)
	require.NotNil(t, song.ImageObject)
	assert.Equal(t, first, *song.ImageObject)

	list, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, findSong(list, songID).ImageURL)
	assert.Contains(t, *findSong(list, songID).ImageURL, first)

	second := f.upload(t, alice)
	_, err = f.svc.RegisterImageUpload(ctx, alice, second, songID)
	require.NoError(t, err)
	assert.Contains(t, f.objects.removed, first)
	_, cached, _ := f.cache.Get(ctx, first)
	assert.False(t, cached)
}

func TestService_DeleteSongCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, auth.DefaultPolicy([]string{auth.TokenIdentifier("https://id.test", "root")}))
	alice := identity("alice", "Alice")
	bob := identity("bob", "Bob")
	root := identity("root", "Root")
	for _, id := range []*auth.Identity{alice, bob} {
		_, err := f.svc.StoreUser(ctx, id)
		require.NoError(t, err)
	}

	songID := f.addSong(t, alice, "Doomed")
	_, err := f.svc.RegisterImageUpload(ctx, alice, f.upload(t, alice), songID)
	require.NoError(t, err)
	_, err = f.svc.Favorite(ctx, bob, songID)
	require.NoError(t, err)

	_, err = f.svc.DeleteSong(ctx, bob, songID)
	assert.ErrorIs(t, err, ErrForbidden)

	song, err := f.svc.DeleteSong(ctx, alice, songID)
	require.NoError(t, err)
	for _, ref := range song.ObjectRefs() {
		assert.Contains(t, f.objects.removed, ref)
	}

	list, err := f.svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Nil(t, findSong(list, songID))

	bobUser, err := f.svc.StoreUser(ctx, bob)
	require.NoError(t, err)
	favs, err := f.favorites.SongIDsForUser(ctx, bobUser.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = f.svc.DeleteSong(ctx, alice, songID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = f.svc.Favorite(ctx, bob, songID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// admin token without a profile row
	other := f.addSong(t, alice, "Also doomed")
	_, err = f.svc.DeleteSong(ctx, root, other)
	require.NoError(t, err)
}

func TestService_ForeignObjectsCannotBeClaimed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice, mallory := identity("alice", "Alice"), identity("mallory", "Mallory")
	for _, id := range []*auth.Identity{alice, mallory} {
		_, err := f.svc.StoreUser(ctx, id)
		require.NoError(t, err)
	}

	aliceSong := f.addSong(t, alice, "Mine")
	list, err := f.svc.List(ctx, mallory)
	require.NoError(t, err)
	aliceAudio := findSong(list, aliceSong).SongObject

	_, err = f.svc.RegisterSongUpload(ctx, mallory, aliceAudio, "Stolen")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	mallorySong := f.addSong(t, mallory, "Bait")
	_, err = f.svc.RegisterImageUpload(ctx, mallory, aliceAudio, mallorySong)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.RegisterImageUpload(ctx, mallory, f.upload(t, mallory), mallorySong)
	require.NoError(t, err)
	_, err = f.svc.DeleteSong(ctx, mallory, mallorySong)
	require.NoError(t, err)

	exists, err := f.objects.Exists(ctx, aliceAudio)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NotContains(t, f.objects.removed, aliceAudio)
}

func TestService_ReclaimKeepsSharedObjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")
	user, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)

	// rows written before keys were scoped per user can share an object
	shared := "uploads/legacy-shared"
	f.objects.put(shared, time.Now())
	first := &model.Song{OwnerID: user.ID, Title: "One", SongObject: shared}
	second := &model.Song{OwnerID: user.ID, Title: "Two", SongObject: shared}
	require.NoError(t, f.songs.Create(ctx, first))
	require.NoError(t, f.songs.Create(ctx, second))

	_, err = f.svc.DeleteSong(ctx, alice, first.ID)
	require.NoError(t, err)
	exists, _ := f.objects.Exists(ctx, shared)
	assert.True(t, exists)

	_, err = f.svc.DeleteSong(ctx, alice, second.ID)
	require.NoError(t, err)
	exists, _ = f.objects.Exists(ctx, shared)
	assert.False(t, exists)
}

func TestService_ReattachSameImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")
	_, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)
	songID := f.addSong(t, alice, "Cover")

	img := f.upload(t, alice)
	_, err = f.svc.RegisterImageUpload(ctx, alice, img, songID)
	require.NoError(t, err)
	song, err := f.svc.RegisterImageUpload(ctx, alice, img, songID)
	require.NoError(t, err)
	assert.Equal(t, img, *song.ImageObject)
	assert.NotContains(t, f.objects.removed, img)
}

func TestService_DeleteSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")
	_, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)
	songID := f.addSong(t, alice, "Sticky")

	f.objects.failRm = true
	_, err = f.svc.DeleteSong(ctx, alice, songID)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_FavoriteKeying(t *testing.T) {
	ctx := context.Background()

	t.Run("caller", func(t *testing.T) {
		f := newFixture(t, Options{FavoriteKeying: config.FavoriteKeyingCaller}, nil)
		alice, bob := identity("alice", "Alice"), identity("bob", "Bob")
		_, err := f.svc.StoreUser(ctx, alice)
		require.NoError(t, err)
		_, err = f.svc.StoreUser(ctx, bob)
		require.NoError(t, err)
		songID := f.addSong(t, alice, "Shared")

		_, err = f.svc.Favorite(ctx, bob, songID)
		require.NoError(t, err)

		bobFav, err := f.svc.GetFavoriteStatus(ctx, bob, songID)
		require.NoError(t, err)
		assert.True(t, bobFav)
		aliceFav, err := f.svc.GetFavoriteStatus(ctx, alice, songID)
		require.NoError(t, err)
		assert.False(t, aliceFav)
	})

	t.Run("owner", func(t *testing.T) {
		f := newFixture(t, Options{FavoriteKeying: config.FavoriteKeyingOwner}, nil)
		alice, bob := identity("alice", "Alice"), identity("bob", "Bob")
		_, err := f.svc.StoreUser(ctx, alice)
		require.NoError(t, err)
		_, err = f.svc.StoreUser(ctx, bob)
		require.NoError(t, err)
		songID := f.addSong(t, alice, "Shared")

		// bob's favorite lands on the owner's row
		_, err = f.svc.Favorite(ctx, bob, songID)
		require.NoError(t, err)

		aliceFav, err := f.svc.GetFavoriteStatus(ctx, alice, songID)
		require.NoError(t, err)
		assert.True(t, aliceFav)
		bobFav, err := f.svc.GetFavoriteStatus(ctx, bob, songID)
		require.NoError(t, err)
		assert.False(t, bobFav)

		_, err = f.svc.Favorite(ctx, alice, songID)
		assert.ErrorIs(t, err, ErrAlreadyFavorited)
	})
}

func TestService_ConcurrentFavorite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")
	_, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)
	songID := f.addSong(t, alice, "Race")

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Favorite(ctx, alice, songID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyFavorited)
	}
	assert.Equal(t, 1, ok)
}

func TestService_SignedURLsAreCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{SignedURLTTL: 10 * time.Minute}, nil)
	alice := identity("alice", "Alice")
	_, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)
	f.addSong(t, alice, "Hot")

	_, err = f.svc.List(ctx, alice)
	require.NoError(t, err)
	_, err = f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, f.objects.signed)
}

func TestService_UploadRateLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{UploadRatePerMin: 2}, nil)
	alice, bob := identity("alice", "Alice"), identity("bob", "Bob")
	for _, id := range []*auth.Identity{alice, bob} {
		_, err := f.svc.StoreUser(ctx, id)
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		ticket, err := f.svc.GenerateUploadURL(ctx, alice)
		require.NoError(t, err)
		assert.Contains(t, ticket.UploadURL, ticket.StorageID)
		assert.True(t, ticket.ExpiresAt.After(time.Now()))
	}
	_, err := f.svc.GenerateUploadURL(ctx, alice)
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = f.svc.GenerateUploadURL(ctx, bob)
	assert.NoError(t, err)
}

func TestService_ReapOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, nil)
	alice := identity("alice", "Alice")
	_, err := f.svc.StoreUser(ctx, alice)
	require.NoError(t, err)

	songID := f.addSong(t, alice, "Kept")
	old := time.Now().Add(-48 * time.Hour)
	f.objects.put("uploads/stale", old)
	f.objects.put("uploads/fresh", time.Now())

	list, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	kept := findSong(list, songID).SongObject
	f.objects.put(kept, old)

	orphans, err := f.svc.ReapOrphans(ctx, f.objects, 24*time.Hour, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/stale"}, orphans)
	assert.Empty(t, f.objects.removed)

	orphans, err = f.svc.ReapOrphans(ctx, f.objects, 24*time.Hour, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/stale"}, orphans)
	assert.Equal(t, []string{"uploads/stale"}, f.objects.removed)

	exists, _ := f.objects.Exists(ctx, kept)
	assert.True(t, exists)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		FavoriteKeying:   config.FavoriteKeyingOwner,
		SignedURLTTL:     time.Hour,
		UploadURLTTL:     time.Minute,
		UploadRatePerMin: 5,
	}
	assert.Equal(t, Options{
		FavoriteKeying:   config.FavoriteKeyingOwner,
		SignedURLTTL:     time.Hour,
		UploadURLTTL:     time.Minute,
		UploadRatePerMin: 5,
	}, OptionsFromConfig(cfg))
}
