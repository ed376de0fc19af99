package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"vidshare/config"
	"vidshare/core/utils"
	"vidshare/repository"
)

// AuthorHandler serves author profile endpoints. Profiles hang off the slug
// derived from a comment author's free-text name.
type AuthorHandler struct {
	authors repository.AuthorProfileRepository
	cfg     *config.Config
}

// NewAuthorHandler creates a new AuthorHandler.
func NewAuthorHandler(authors repository.AuthorProfileRepository, cfg *config.Config) *AuthorHandler {
	return &AuthorHandler{authors: authors, cfg: cfg}
}

// slugParam returns the normalized slug from the path. Raw author names are
// accepted and slugified, so both forms address the same profile.
func slugParam(r *http.Request) string {
	return utils.SlugifyAuthor(strings.TrimSpace(mux.Vars(r)["slug"]))
}

// GetProfileHandler returns the profile for a slug.
func (h *AuthorHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	slug := slugParam(r)
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "invalid author slug")
		return
	}
	profile, err := h.authors.GetBySlug(slug)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		respondWithError(w, http.StatusNotFound, "profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// UploadAvatarHandler stores an avatar for an author slug, creating the
// profile on first upload.
func (h *AuthorHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	slug := slugParam(r)
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "invalid author slug")
		return
	}

	rel, err := saveAvatarUpload(r, h.cfg.AvatarDir)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.authors.UpsertAvatar(slug, rel)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}
