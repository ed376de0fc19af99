package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"vidshare/core/utils"
	"vidshare/logger"
	"vidshare/model"
	"vidshare/repository"
)

// CommentHandler serves comment endpoints for every parent kind.
type CommentHandler struct {
	comments repository.CommentRepository
	artists  repository.ArtistRepository
	authors  repository.AuthorProfileRepository
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments repository.CommentRepository, artists repository.ArtistRepository,
	authors repository.AuthorProfileRepository) *CommentHandler {
	return &CommentHandler{comments: comments, artists: artists, authors: authors}
}

// CommentView is a comment decorated with the author's profile identity.
type CommentView struct {
	model.Comment
	AuthorSlug string `json:"authorSlug"`
	AvatarPath string `json:"avatarPath,omitempty"`
}

func (h *CommentHandler) decorate(c model.Comment) CommentView {
	view := CommentView{Comment: c, AuthorSlug: utils.SlugifyAuthor(c.Author)}
	if view.AuthorSlug != "" {
		if profile, err := h.authors.GetBySlug(view.AuthorSlug); err == nil && profile != nil {
			view.AvatarPath = profile.AvatarPath
		}
	}
	return view
}

type addCommentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// addComment validates the payload, upserts the author's artist record and
// inserts through the kind-specific create function.
func (h *CommentHandler) addComment(w http.ResponseWriter, r *http.Request, create func(c model.Comment) (model.Comment, error)) {
	var req addCommentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Author = strings.TrimSpace(req.Author)
	req.Content = strings.TrimSpace(req.Content)
	if req.Author == "" || req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "author and content are required")
		return
	}

	c := model.Comment{Author: req.Author, Content: req.Content}

	// Commenting under a name makes that name an artist.
	artist, err := h.artists.GetOrCreateArtist(req.Author)
	if err != nil {
		logger.Warn("Could not upsert artist for comment author",
			logger.String("author", req.Author),
			logger.ErrorField(err))
	} else {
		c.AuthorArtistID = artist.ID
	}

	created, err := create(c)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save comment")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"comment": h.decorate(created),
	})
}

// AddVideoCommentHandler adds a comment to a video.
func (h *CommentHandler) AddVideoCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	h.addComment(w, r, func(c model.Comment) (model.Comment, error) {
		vc := &model.VideoComment{Comment: c, VideoID: id}
		_, err := h.comments.CreateVideoComment(vc)
		return vc.Comment, err
	})
}

// AddTrackCommentHandler adds a comment to a track.
func (h *CommentHandler) AddTrackCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	h.addComment(w, r, func(c model.Comment) (model.Comment, error) {
		tc := &model.TrackComment{Comment: c, TrackID: id}
		_, err := h.comments.CreateTrackComment(tc)
		return tc.Comment, err
	})
}

// AddPlaylistCommentHandler adds a comment to a playlist.
func (h *CommentHandler) AddPlaylistCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	h.addComment(w, r, func(c model.Comment) (model.Comment, error) {
		pc := &model.PlaylistComment{Comment: c, PlaylistID: id}
		_, err := h.comments.CreatePlaylistComment(pc)
		return pc.Comment, err
	})
}

// AddTagCommentHandler adds a comment to a tag page.
func (h *CommentHandler) AddTagCommentHandler(w http.ResponseWriter, r *http.Request) {
	tagName := strings.TrimSpace(mux.Vars(r)["tag"])
	if tagName == "" {
		respondWithError(w, http.StatusBadRequest, "invalid tag name")
		return
	}
	h.addComment(w, r, func(c model.Comment) (model.Comment, error) {
		tc := &model.TagComment{Comment: c, TagName: tagName}
		_, err := h.comments.CreateTagComment(tc)
		return tc.Comment, err
	})
}

// AddArtistCommentHandler adds a comment to an artist page.
func (h *CommentHandler) AddArtistCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	h.addComment(w, r, func(c model.Comment) (model.Comment, error) {
		ac := &model.ArtistComment{Comment: c, ArtistID: id}
		_, err := h.comments.CreateArtistComment(ac)
		return ac.Comment, err
	})
}

func (h *CommentHandler) respondCommentList(w http.ResponseWriter, comments []model.Comment, err error) {
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load comments")
		return
	}
	views := make([]CommentView, len(comments))
	for i, c := range comments {
		views[i] = h.decorate(c)
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"comments": views})
}

// ListVideoCommentsHandler lists a video's comments newest first.
func (h *CommentHandler) ListVideoCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	list, err := h.comments.ListVideoComments(id)
	comments := make([]model.Comment, len(list))
	for i, c := range list {
		comments[i] = c.Comment
	}
	h.respondCommentList(w, comments, err)
}

// ListTrackCommentsHandler lists a track's comments newest first.
func (h *CommentHandler) ListTrackCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	list, err := h.comments.ListTrackComments(id)
	comments := make([]model.Comment, len(list))
	for i, c := range list {
		comments[i] = c.Comment
	}
	h.respondCommentList(w, comments, err)
}

// ListPlaylistCommentsHandler lists a playlist's comments newest first.
func (h *CommentHandler) ListPlaylistCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	list, err := h.comments.ListPlaylistComments(id)
	comments := make([]model.Comment, len(list))
	for i, c := range list {
		comments[i] = c.Comment
	}
	h.respondCommentList(w, comments, err)
}

// ListTagCommentsHandler lists a tag page's comments newest first.
func (h *CommentHandler) ListTagCommentsHandler(w http.ResponseWriter, r *http.Request) {
	tagName := strings.TrimSpace(mux.Vars(r)["tag"])
	if tagName == "" {
		respondWithError(w, http.StatusBadRequest, "invalid tag name")
		return
	}
	list, err := h.comments.ListTagComments(tagName)
	comments := make([]model.Comment, len(list))
	for i, c := range list {
		comments[i] = c.Comment
	}
	h.respondCommentList(w, comments, err)
}

// ListArtistCommentsHandler lists an artist page's comments newest first.
func (h *CommentHandler) ListArtistCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	list, err := h.comments.ListArtistComments(id)
	comments := make([]model.Comment, len(list))
	for i, c := range list {
		comments[i] = c.Comment
	}
	h.respondCommentList(w, comments, err)
}

func commentKind(r *http.Request) (model.CommentKind, bool) {
	kind := model.CommentKind(mux.Vars(r)["kind"])
	switch kind {
	case model.KindVideo, model.KindTrack, model.KindPlaylist, model.KindTag, model.KindArtist:
		return kind, true
	}
	return "", false
}

// LikeCommentHandler bumps a comment's like counter.
func (h *CommentHandler) LikeCommentHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := commentKind(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid comment kind")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	if err := h.comments.LikeComment(kind, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "comment not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to like comment")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteCommentHandler removes a comment.
func (h *CommentHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := commentKind(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid comment kind")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	if err := h.comments.DeleteComment(kind, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "comment not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to delete comment")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
