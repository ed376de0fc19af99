package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr     string
	FFmpegPath   string
	VideoBitrate string // ceiling for WebM->MP4 conversion, e.g. "2M"
	AudioBitrate string // for audio extraction, e.g. "192k"

	// Storage roots. Media files live on the filesystem; the database only
	// holds path strings and is not the source of truth for file existence.
	UploadDir             string // public video uploads
	StealthUploadDir      string // unlisted video uploads
	AudioUploadDir        string // public track uploads
	StealthAudioUploadDir string // unlisted track uploads
	StaticDir             string // root for derived artifacts (thumbnails, covers, avatars)
	ThumbnailDir          string // StaticDir/thumbnails
	CoverDir              string // StaticDir/covers
	AvatarDir             string // StaticDir/avatars

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// AI comment generation (OpenAI-compatible chat completions endpoint).
	AIBaseURL   string
	AIKey       string
	AIModel     string
	AIMaxTokens int

	LogPath string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	staticBase := getEnv("STATIC_DIR", "static")

	return &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":5015"),
		FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
		VideoBitrate: getEnv("VIDEO_BITRATE", "2M"),
		AudioBitrate: getEnv("AUDIO_BITRATE", "192k"),

		UploadDir:             getEnv("UPLOAD_DIR", "uploads"),
		StealthUploadDir:      getEnv("STEALTH_UPLOAD_DIR", "stealth_uploads"),
		AudioUploadDir:        getEnv("AUDIO_UPLOAD_DIR", "uploads_audio"),
		StealthAudioUploadDir: getEnv("STEALTH_AUDIO_UPLOAD_DIR", "stealth_audio_uploads"),
		StaticDir:             staticBase,
		ThumbnailDir:          filepath.Join(staticBase, "thumbnails"),
		CoverDir:              filepath.Join(staticBase, "covers"),
		AvatarDir:             filepath.Join(staticBase, "avatars"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "vidshare"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AIBaseURL:   getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIKey:       os.Getenv("AI_API_KEY"),
		AIModel:     getEnv("AI_MODEL", "gpt-4o-mini"),
		AIMaxTokens: getEnvInt("AI_MAX_TOKENS", 300),

		LogPath: getEnv("LOG_PATH", ""),
	}
}
