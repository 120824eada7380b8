package playback

import "tunebox/model"

// NowPlaying 播放器当前展示的信息
type NowPlaying struct {
	SongID   int64
	Title    string
	Artist   string
	SongURL  string
	CoverArt *string
}

// Queue holds the player's view state: the library snapshot, the favorites
// filter and the index of the playing song within the filtered view.
// It is not safe for concurrent use.
type Queue struct {
	songs         []*model.SongWithURLs
	showFavorites bool
	index         int
	current       *NowPlaying
}

// NewQueue 创建空的播放队列
func NewQueue() *Queue {
	return &Queue{index: -1}
}

// SetSongs replaces the library snapshot after a refetch. The playing song
// keeps playing; its index is re-resolved against the new view.
func (q *Queue) SetSongs(songs []*model.SongWithURLs) {
	q.songs = songs
	q.reanchor()
}

// ToggleFavorites 切换只看收藏
func (q *Queue) ToggleFavorites() {
	q.showFavorites = !q.showFavorites
	q.reanchor()
}

// ShowFavorites reports whether the favorites filter is on.
func (q *Queue) ShowFavorites() bool {
	return q.showFavorites
}

// Visible 返回当前过滤后的歌曲列表
func (q *Queue) Visible() []*model.SongWithURLs {
	if !q.showFavorites {
		return q.songs
	}
	out := make([]*model.SongWithURLs, 0, len(q.songs))
	for _, s := range q.songs {
		if s.Favorite {
			out = append(out, s)
		}
	}
	return out
}

// Index is -1 when nothing in the visible list is playing.
func (q *Queue) Index() int {
	return q.index
}

// Current returns nil when nothing is playing.
func (q *Queue) Current() *NowPlaying {
	return q.current
}

// Select plays the i-th visible song. Out of range indexes are ignored.
func (q *Queue) Select(i int) bool {
	visible := q.Visible()
	if i < 0 || i >= len(visible) {
		return false
	}
	q.play(visible[i], i)
	return true
}

// Next 下一首，到末尾后回到第一首
func (q *Queue) Next() {
	visible := q.Visible()
	if len(visible) == 0 {
		q.reset()
		return
	}
	next := 0
	if q.index < len(visible)-1 {
		next = q.index + 1
	}
	q.play(visible[next], next)
}

// Previous 上一首，在第一首时跳到最后一首
func (q *Queue) Previous() {
	visible := q.Visible()
	if len(visible) == 0 {
		q.reset()
		return
	}
	prev := len(visible) - 1
	if q.index > 0 {
		prev = q.index - 1
	}
	q.play(visible[prev], prev)
}

func (q *Queue) play(s *model.SongWithURLs, i int) {
	artist := ""
	if s.Owner != nil {
		artist = s.Owner.FullName
	}
	q.index = i
	q.current = &NowPlaying{
		SongID:   s.ID,
		Title:    s.Title,
		Artist:   artist,
		SongURL:  s.SongURL,
		CoverArt: s.ImageURL,
	}
}

func (q *Queue) reset() {
	q.index = -1
	q.current = nil
}

func (q *Queue) reanchor() {
	q.index = -1
	if q.current == nil {
		return
	}
	for i, s := range q.Visible() {
		if s.ID == q.current.SongID {
			q.index = i
			return
		}
	}
}
