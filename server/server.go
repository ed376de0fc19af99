package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"vidshare/config"
	"vidshare/core/agent"
	"vidshare/core/ingest"
	"vidshare/core/media"
	"vidshare/db"
	"vidshare/logger"
	"vidshare/repository"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      "info",
		OutputPath: cfg.LogPath,
	})
	defer logger.Sync()

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect for migration", logger.ErrorField(err))
	}
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to migrate schema", logger.ErrorField(err))
	}
	db.CloseGormDB()

	// Redis is optional; tag listings fall back to the database without it.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, tag count caching disabled", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	ensureDirExists(cfg.StaticDir)
	ensureDirExists(cfg.UploadDir)
	ensureDirExists(cfg.StealthUploadDir)
	ensureDirExists(cfg.AudioUploadDir)
	ensureDirExists(cfg.StealthAudioUploadDir)
	ensureDirExists(cfg.ThumbnailDir)
	ensureDirExists(cfg.CoverDir)
	ensureDirExists(cfg.AvatarDir)

	videoRepo := repository.NewMySQLVideoRepository()
	trackRepo := repository.NewMySQLTrackRepository()
	commentRepo := repository.NewMySQLCommentRepository()
	playlistRepo := repository.NewMySQLPlaylistRepository()
	artistRepo := repository.NewMySQLArtistRepository()
	tagRepo := repository.NewMySQLTagRepository()
	authorRepo := repository.NewMySQLAuthorProfileRepository()

	processor := media.NewFFmpegProcessor(cfg.FFmpegPath, cfg.VideoBitrate, cfg.AudioBitrate)
	ingestor := ingest.NewIngestor(processor, videoRepo, trackRepo, cfg)
	commentAgent := agent.NewCommentAgent(&agent.CommentAgentConfig{
		APIBaseURL: cfg.AIBaseURL,
		APIKey:     cfg.AIKey,
		Model:      cfg.AIModel,
		MaxTokens:  cfg.AIMaxTokens,
	})

	videoHandler := NewVideoHandler(videoRepo, commentRepo, playlistRepo, ingestor, cfg)
	trimHandler := NewTrimHandler(videoRepo, processor, cfg)
	trackHandler := NewTrackHandler(trackRepo, artistRepo, commentRepo, ingestor, cfg)
	commentHandler := NewCommentHandler(commentRepo, artistRepo, authorRepo)
	playlistHandler := NewPlaylistHandler(playlistRepo, videoRepo, commentRepo)
	artistHandler := NewArtistHandler(artistRepo, trackRepo, videoRepo, commentRepo, cfg)
	tagHandler := NewTagHandler(tagRepo, videoRepo, trackRepo, commentRepo)
	authorHandler := NewAuthorHandler(authorRepo, cfg)
	aiHandler := NewAIHandler(commentAgent, trackRepo, artistRepo)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Videos
	router.HandleFunc("/api/videos", videoHandler.UploadVideoHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos", videoHandler.ListVideosHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/videos/bulk", videoHandler.BulkUploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/batch", videoHandler.BatchUploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/cleanup", videoHandler.CleanupStealthHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}", videoHandler.GetVideoHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/videos/{id:[0-9]+}", videoHandler.DeleteVideoHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/videos/{id:[0-9]+}/like", videoHandler.LikeVideoHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/view", videoHandler.ViewVideoHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/tags", videoHandler.UpdateTagsHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/description", videoHandler.UpdateDescriptionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/title", videoHandler.UpdateTitleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/restore", videoHandler.RestoreVideoHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/thumbnail", videoHandler.ThumbnailHandler).Methods(http.MethodGet)

	// Trim workflow
	router.HandleFunc("/api/videos/{id:[0-9]+}/trim", trimHandler.StageTrimHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/trim/preview", trimHandler.PreviewTrimHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/videos/{id:[0-9]+}/trim/accept", trimHandler.AcceptTrimHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/extract-audio", trimHandler.ExtractAudioHandler).Methods(http.MethodPost)

	// Streaming
	router.HandleFunc("/stream/video/{id:[0-9]+}", videoHandler.StreamVideoHandler).Methods(http.MethodGet)
	router.HandleFunc("/stream/track/{id:[0-9]+}", trackHandler.StreamTrackHandler).Methods(http.MethodGet)

	// Tracks
	router.HandleFunc("/api/tracks", trackHandler.UploadTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks", trackHandler.ListTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id:[0-9]+}", trackHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id:[0-9]+}", trackHandler.DeleteTrackHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id:[0-9]+}/like", trackHandler.LikeTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id:[0-9]+}/view", trackHandler.ViewTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id:[0-9]+}/cover", trackHandler.CoverHandler).Methods(http.MethodGet)

	// Comments
	router.HandleFunc("/api/videos/{id:[0-9]+}/comments", commentHandler.AddVideoCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{id:[0-9]+}/comments", commentHandler.ListVideoCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id:[0-9]+}/comments", commentHandler.AddTrackCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id:[0-9]+}/comments", commentHandler.ListTrackCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id:[0-9]+}/comments", commentHandler.AddPlaylistCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id:[0-9]+}/comments", commentHandler.ListPlaylistCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tags/{tag}/comments", commentHandler.AddTagCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tags/{tag}/comments", commentHandler.ListTagCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id:[0-9]+}/comments", commentHandler.AddArtistCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/{id:[0-9]+}/comments", commentHandler.ListArtistCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/comments/{kind}/{id:[0-9]+}/like", commentHandler.LikeCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/comments/{kind}/{id:[0-9]+}", commentHandler.DeleteCommentHandler).Methods(http.MethodDelete)

	// Playlists
	router.HandleFunc("/api/playlists", playlistHandler.CreatePlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists", playlistHandler.ListPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id:[0-9]+}", playlistHandler.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id:[0-9]+}", playlistHandler.UpdatePlaylistHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id:[0-9]+}", playlistHandler.DeletePlaylistHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id:[0-9]+}/videos/{videoId:[0-9]+}", playlistHandler.AddVideoHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id:[0-9]+}/videos/{videoId:[0-9]+}", playlistHandler.RemoveVideoHandler).Methods(http.MethodDelete)

	// Artists
	router.HandleFunc("/api/artists", artistHandler.ListArtistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists", artistHandler.UpsertArtistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/{id:[0-9]+}", artistHandler.GetArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id:[0-9]+}/bio", artistHandler.UpdateBioHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/{id:[0-9]+}/avatar", artistHandler.UploadAvatarHandler).Methods(http.MethodPost)
	router.HandleFunc("/artist/{name}", artistHandler.ResolveArtistHandler).Methods(http.MethodGet)

	// Tags
	router.HandleFunc("/api/tags", tagHandler.ListTagsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tags/suggestions", tagHandler.SuggestionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tags/{tag}", tagHandler.TagDetailHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tags/{tag}/description", tagHandler.UpdateDescriptionHandler).Methods(http.MethodPost)

	// Author profiles
	router.HandleFunc("/api/authors/{slug}", authorHandler.GetProfileHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/authors/{slug}/avatar", authorHandler.UploadAvatarHandler).Methods(http.MethodPost)

	// AI comment generation
	router.HandleFunc("/api/tracks/{id:[0-9]+}/comments/generate", aiHandler.GenerateTrackCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/{id:[0-9]+}/comments/generate", aiHandler.GenerateArtistCommentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/ai/prompts", aiHandler.PromptsHandler).Methods(http.MethodGet)

	// Derived artifacts (thumbnails, covers, avatars)
	staticFileServer := http.FileServer(http.Dir(cfg.StaticDir))
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticFileServer))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Minute, // uploads and transcodes are slow
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("Creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("Failed to create directory", logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("Failed to check directory", logger.String("path", path), logger.ErrorField(err))
	}
}
