package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"vidshare/model"
	"vidshare/repository"
)

type fakeCommentRepo struct {
	videoComments map[int64][]*model.VideoComment
	liked         []int64
	likeErr       error
	deleteErr     error
	nextID        int64
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{videoComments: make(map[int64][]*model.VideoComment)}
}

func (f *fakeCommentRepo) CreateVideoComment(c *model.VideoComment) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	f.videoComments[c.VideoID] = append(f.videoComments[c.VideoID], c)
	return c.ID, nil
}

func (f *fakeCommentRepo) ListVideoComments(videoID int64) ([]*model.VideoComment, error) {
	return f.videoComments[videoID], nil
}

func (f *fakeCommentRepo) CreateTrackComment(c *model.TrackComment) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	return c.ID, nil
}

func (f *fakeCommentRepo) ListTrackComments(trackID int64) ([]*model.TrackComment, error) {
	return nil, nil
}

func (f *fakeCommentRepo) CreatePlaylistComment(c *model.PlaylistComment) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	return c.ID, nil
}

func (f *fakeCommentRepo) ListPlaylistComments(playlistID int64) ([]*model.PlaylistComment, error) {
	return nil, nil
}

func (f *fakeCommentRepo) CreateTagComment(c *model.TagComment) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	return c.ID, nil
}

func (f *fakeCommentRepo) ListTagComments(tagName string) ([]*model.TagComment, error) {
	return nil, nil
}

func (f *fakeCommentRepo) CreateArtistComment(c *model.ArtistComment) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	return c.ID, nil
}

func (f *fakeCommentRepo) ListArtistComments(artistID int64) ([]*model.ArtistComment, error) {
	return nil, nil
}

func (f *fakeCommentRepo) LikeComment(kind model.CommentKind, id int64) error {
	if f.likeErr != nil {
		return f.likeErr
	}
	f.liked = append(f.liked, id)
	return nil
}

func (f *fakeCommentRepo) DeleteComment(kind model.CommentKind, id int64) error {
	return f.deleteErr
}

func (f *fakeCommentRepo) ListRecentActivityByArtist(artistID int64, limit int) ([]repository.AuthorActivity, error) {
	return nil, nil
}

type fakeArtistRepo struct {
	byName map[string]*model.Artist
	nextID int64
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{byName: make(map[string]*model.Artist)}
}

func (f *fakeArtistRepo) GetArtistByID(id int64) (*model.Artist, error) {
	for _, a := range f.byName {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeArtistRepo) GetArtistByName(name string) (*model.Artist, error) {
	return f.byName[strings.ToLower(name)], nil
}

func (f *fakeArtistRepo) GetOrCreateArtist(name string) (*model.Artist, error) {
	key := strings.ToLower(name)
	if a, ok := f.byName[key]; ok {
		return a, nil
	}
	f.nextID++
	a := &model.Artist{ID: f.nextID, Name: name}
	f.byName[key] = a
	return a, nil
}

func (f *fakeArtistRepo) ListArtistsByTrack(trackID int64) ([]*model.Artist, error) {
	return nil, nil
}

func (f *fakeArtistRepo) ListArtistsWithStats(limit, offset int) ([]model.ArtistStats, int, error) {
	return nil, 0, nil
}

func (f *fakeArtistRepo) GetArtistStats(id int64) (*model.ArtistStats, error) { return nil, nil }

func (f *fakeArtistRepo) UpdateArtistBio(id int64, bio string) error { return nil }

func (f *fakeArtistRepo) UpdateArtistAvatar(id int64, avatarPath string) error { return nil }

type fakeAuthorRepo struct {
	bySlug map[string]*model.AuthorProfile
}

func (f *fakeAuthorRepo) GetBySlug(slug string) (*model.AuthorProfile, error) {
	return f.bySlug[slug], nil
}

func (f *fakeAuthorRepo) UpsertAvatar(slug, avatarPath string) (*model.AuthorProfile, error) {
	p := &model.AuthorProfile{Slug: slug, AvatarPath: avatarPath}
	if f.bySlug == nil {
		f.bySlug = make(map[string]*model.AuthorProfile)
	}
	f.bySlug[slug] = p
	return p, nil
}

func postComment(t *testing.T, h *CommentHandler, vars map[string]string, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/videos/1/comments", strings.NewReader(body))
	r = mux.SetURLVars(r, vars)
	w := httptest.NewRecorder()
	h.AddVideoCommentHandler(w, r)
	return w
}

func TestAddVideoComment(t *testing.T) {
	comments := newFakeCommentRepo()
	artists := newFakeArtistRepo()
	authors := &fakeAuthorRepo{bySlug: map[string]*model.AuthorProfile{
		"alice": {Slug: "alice", AvatarPath: "avatars/alice.jpg"},
	}}
	h := NewCommentHandler(comments, artists, authors)

	w := postComment(t, h, map[string]string{"id": "7"},
		`{"author": "  Alice  ", "content": " nice one "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool        `json:"success"`
		Comment CommentView `json:"comment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Comment.Author != "Alice" || resp.Comment.Content != "nice one" {
		t.Errorf("comment fields not trimmed: %+v", resp.Comment)
	}
	if resp.Comment.AuthorSlug != "alice" {
		t.Errorf("AuthorSlug = %q", resp.Comment.AuthorSlug)
	}
	if resp.Comment.AvatarPath != "avatars/alice.jpg" {
		t.Errorf("AvatarPath = %q", resp.Comment.AvatarPath)
	}

	stored := comments.videoComments[7]
	if len(stored) != 1 {
		t.Fatalf("stored %d comments", len(stored))
	}
	if stored[0].AuthorArtistID == 0 {
		t.Error("comment should carry the author's artist id")
	}
	if artists.byName["alice"] == nil {
		t.Error("commenting should upsert the author as an artist")
	}
}

func TestAddVideoCommentValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing author", `{"content": "hi"}`},
		{"missing content", `{"author": "Alice"}`},
		{"whitespace only", `{"author": "   ", "content": "  "}`},
		{"malformed json", `{author: Alice}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := newFakeCommentRepo()
			h := NewCommentHandler(comments, newFakeArtistRepo(), &fakeAuthorRepo{})

			w := postComment(t, h, map[string]string{"id": "7"}, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if len(comments.videoComments) != 0 {
				t.Error("nothing should be stored on a rejected comment")
			}
		})
	}
}

func TestLikeComment(t *testing.T) {
	comments := newFakeCommentRepo()
	h := NewCommentHandler(comments, newFakeArtistRepo(), &fakeAuthorRepo{})

	r := httptest.NewRequest(http.MethodPost, "/api/comments/video/3/like", nil)
	r = mux.SetURLVars(r, map[string]string{"kind": "video", "id": "3"})
	w := httptest.NewRecorder()
	h.LikeCommentHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(comments.liked) != 1 || comments.liked[0] != 3 {
		t.Errorf("liked = %v", comments.liked)
	}
}

func TestLikeCommentNotFound(t *testing.T) {
	comments := newFakeCommentRepo()
	comments.likeErr = sql.ErrNoRows
	h := NewCommentHandler(comments, newFakeArtistRepo(), &fakeAuthorRepo{})

	r := httptest.NewRequest(http.MethodPost, "/api/comments/video/99/like", nil)
	r = mux.SetURLVars(r, map[string]string{"kind": "video", "id": "99"})
	w := httptest.NewRecorder()
	h.LikeCommentHandler(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestLikeCommentInvalidKind(t *testing.T) {
	h := NewCommentHandler(newFakeCommentRepo(), newFakeArtistRepo(), &fakeAuthorRepo{})

	r := httptest.NewRequest(http.MethodPost, "/api/comments/bogus/3/like", nil)
	r = mux.SetURLVars(r, map[string]string{"kind": "bogus", "id": "3"})
	w := httptest.NewRecorder()
	h.LikeCommentHandler(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
