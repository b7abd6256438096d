package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/moodtune/moodtune-backend/internal/config"
	"github.com/moodtune/moodtune-backend/internal/models"
)

// newTestDB opens an isolated in-memory SQLite database and migrates the
// schema. A single connection keeps the in-memory database alive for the
// whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.UserSession{},
		&models.EmotionLabel{},
		&models.AnalysisRecord{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		RecommendTimeout: 2 * time.Second,
	}
}

func seedSession(t *testing.T, db *gorm.DB, userID uuid.UUID) uuid.UUID {
	t.Helper()
	sess := &models.UserSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(sess).Error)
	return sess.ID
}

func seedRecord(t *testing.T, db *gorm.DB, sessionID uuid.UUID, emotion string, confidence float64, ts time.Time) *models.AnalysisRecord {
	t.Helper()
	rec := &models.AnalysisRecord{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Emotion:    emotion,
		Confidence: confidence,
		Timestamp:  ts.UTC(),
	}
	require.NoError(t, db.Create(rec).Error)
	return rec
}
