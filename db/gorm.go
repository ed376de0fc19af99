package db

import (
	"fmt"

	"vidshare/config"
	"vidshare/logger"
	"vidshare/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB is used for schema migration only; data access goes through the
// database/sql connection in DB.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM connection used by Migrate.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}
	return nil
}

// CloseGormDB closes the underlying connection of the GORM handle.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}
	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates all tables.
func Migrate() error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	err := GormDB.AutoMigrate(
		&model.Video{},
		&model.Track{},
		&model.VideoComment{},
		&model.TrackComment{},
		&model.PlaylistComment{},
		&model.TagComment{},
		&model.ArtistComment{},
		&model.Playlist{},
		&model.PlaylistVideo{},
		&model.Artist{},
		&model.VideoArtist{},
		&model.TrackArtist{},
		&model.TagDescription{},
		&model.AuthorProfile{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	logger.Info("Database schema migrated")
	return nil
}
