package models

import (
	"time"

	"github.com/google/uuid"
)

// EmotionLabel is the lazily populated lookup registry of known emotion
// names. The baseline vocabulary is upserted on demand; new labels from
// future classifiers are accepted as-is.
type EmotionLabel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// BaselineEmotions is the fixed starting vocabulary.
var BaselineEmotions = []string{"happy", "sad", "angry", "relaxed", "energetic"}
