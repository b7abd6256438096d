package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisRecord is one emotion-detection result. Timestamp is always a
// UTC instant; records are immutable once written.
type AnalysisRecord struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"session_id"`
	Emotion          string            `gorm:"size:50;not null;index" json:"emotion"`
	Confidence       float64           `gorm:"not null" json:"confidence"`
	EmotionsDetected datatypes.JSONMap `json:"emotions_detected"`
	Recommendations  datatypes.JSON    `json:"recommendations"`
	Timestamp        time.Time         `gorm:"index" json:"timestamp"`
	CreatedAt        time.Time         `json:"created_at"`
}
