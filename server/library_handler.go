package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tunebox/core/auth"
	"tunebox/core/library"
	"tunebox/logger"
	"tunebox/model"

	"github.com/gorilla/mux"
)

// LibraryService is the set of library operations the HTTP layer exposes.
type LibraryService interface {
	StoreUser(ctx context.Context, id *auth.Identity) (*model.User, error)
	List(ctx context.Context, id *auth.Identity) ([]*model.SongWithURLs, error)
	GenerateUploadURL(ctx context.Context, id *auth.Identity) (*model.UploadTicket, error)
	RegisterSongUpload(ctx context.Context, id *auth.Identity, ref, title string) (int64, error)
	RegisterImageUpload(ctx context.Context, id *auth.Identity, ref string, songID int64) (*model.Song, error)
	Favorite(ctx context.Context, id *auth.Identity, songID int64) (*model.Song, error)
	Unfavorite(ctx context.Context, id *auth.Identity, songID int64) (*model.Song, error)
	GetFavoriteStatus(ctx context.Context, id *auth.Identity, songID int64) (bool, error)
	DeleteSong(ctx context.Context, id *auth.Identity, songID int64) (*model.Song, error)
}

// LibraryHandler 曲库 HTTP 处理器
type LibraryHandler struct {
	svc     LibraryService
	metrics *Metrics
}

// NewLibraryHandler 创建曲库处理器；metrics 可以为空
func NewLibraryHandler(svc LibraryService, metrics *Metrics) *LibraryHandler {
	return &LibraryHandler{svc: svc, metrics: metrics}
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Warn("[HTTP] failed to encode response", logger.ErrorField(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, envelope{Success: false, Error: msg})
}

// statusFor maps library errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, library.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, library.ErrUserNotFound),
		errors.Is(err, library.ErrFileNotFound),
		errors.Is(err, library.ErrFavoriteNotFound),
		errors.Is(err, library.ErrUploadNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrAlreadyFavorited), errors.Is(err, library.ErrObjectInUse):
		return http.StatusConflict
	case errors.Is(err, library.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *LibraryHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	h.metrics.recordOp(op, status)
	if status == http.StatusInternalServerError {
		logger.Error("[Library] operation failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func (h *LibraryHandler) ok(w http.ResponseWriter, op string, status int, data interface{}) {
	h.metrics.recordOp(op, status)
	writeJSON(w, status, data)
}

func songIDFrom(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, library.ErrInvalidArgument
	}
	return id, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return library.ErrInvalidArgument
	}
	return nil
}

// StoreUserHandler POST /api/users/store
func (h *LibraryHandler) StoreUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.StoreUser(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "store_user", err)
		return
	}
	h.ok(w, "store_user", http.StatusOK, user)
}

// ListSongsHandler GET /api/songs
func (h *LibraryHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.List(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	h.ok(w, "list", http.StatusOK, songs)
}

// UploadURLHandler POST /api/songs/upload-url
func (h *LibraryHandler) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.svc.GenerateUploadURL(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "upload_url", err)
		return
	}
	h.ok(w, "upload_url", http.StatusOK, ticket)
}

type registerSongRequest struct {
	StorageID string `json:"storageId"`
	Title     string `json:"title"`
}

// RegisterSongHandler POST /api/songs
func (h *LibraryHandler) RegisterSongHandler(w http.ResponseWriter, r *http.Request) {
	var req registerSongRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "register_song", err)
		return
	}
	id, err := h.svc.RegisterSongUpload(r.Context(), IdentityFromContext(r.Context()), req.StorageID, req.Title)
	if err != nil {
		h.fail(w, r, "register_song", err)
		return
	}
	h.ok(w, "register_song", http.StatusCreated, map[string]int64{"id": id})
}

type registerImageRequest struct {
	StorageID string `json:"storageId"`
}

// RegisterImageHandler PUT /api/songs/{id}/image
func (h *LibraryHandler) RegisterImageHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFrom(r)
	if err != nil {
		h.fail(w, r, "register_image", err)
		return
	}
	var req registerImageRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "register_image", err)
		return
	}
	song, err := h.svc.RegisterImageUpload(r.Context(), IdentityFromContext(r.Context()), req.StorageID, songID)
	if err != nil {
		h.fail(w, r, "register_image", err)
		return
	}
	h.ok(w, "register_image", http.StatusOK, song)
}

// FavoriteHandler POST /api/songs/{id}/favorite
func (h *LibraryHandler) FavoriteHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFrom(r)
	if err != nil {
		h.fail(w, r, "favorite", err)
		return
	}
	song, err := h.svc.Favorite(r.Context(), IdentityFromContext(r.Context()), songID)
	if err != nil {
		h.fail(w, r, "favorite", err)
		return
	}
	h.ok(w, "favorite", http.StatusOK, song)
}

// UnfavoriteHandler DELETE /api/songs/{id}/favorite
func (h *LibraryHandler) UnfavoriteHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFrom(r)
	if err != nil {
		h.fail(w, r, "unfavorite", err)
		return
	}
	song, err := h.svc.Unfavorite(r.Context(), IdentityFromContext(r.Context()), songID)
	if err != nil {
		h.fail(w, r, "unfavorite", err)
		return
	}
	h.ok(w, "unfavorite", http.StatusOK, song)
}

// FavoriteStatusHandler GET /api/songs/{id}/favorite
func (h *LibraryHandler) FavoriteStatusHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFrom(r)
	if err != nil {
		h.fail(w, r, "favorite_status", err)
		return
	}
	fav, err := h.svc.GetFavoriteStatus(r.Context(), IdentityFromContext(r.Context()), songID)
	if err != nil {
		h.fail(w, r, "favorite_status", err)
		return
	}
	h.ok(w, "favorite_status", http.StatusOK, map[string]bool{"favorite": fav})
}

// DeleteSongHandler DELETE /api/songs/{id}
func (h *LibraryHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := songIDFrom(r)
	if err != nil {
		h.fail(w, r, "delete_song", err)
		return
	}
	song, err := h.svc.DeleteSong(r.Context(), IdentityFromContext(r.Context()), songID)
	if err != nil {
		h.fail(w, r, "delete_song", err)
		return
	}
	h.ok(w, "delete_song", http.StatusOK, song)
}
