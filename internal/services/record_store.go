package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moodtune/moodtune-backend/internal/models"
)

var ErrRecordNotFound = errors.New("analysis record not found")

// RecordStore is the query/append surface over sessions, emotion labels
// and analysis records. All timestamps it reads and writes are UTC
// instants; localization is the aggregation layer's job.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *RecordStore) WithTx(tx *gorm.DB) *RecordStore {
	return &RecordStore{db: tx}
}

// SessionIDs returns the ids of every session owned by the user.
// Aggregates never distinguish open from closed sessions.
func (s *RecordStore) SessionIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.UserSession{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// LatestOpenSession returns the most recent session without an end time,
// or nil when the user has no open session.
func (s *RecordStore) LatestOpenSession(userID uuid.UUID) (*models.UserSession, error) {
	var sess models.UserSession
	err := s.db.Where("user_id = ? AND ended_at IS NULL", userID).
		Order("started_at DESC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}
	return &sess, nil
}

func (s *RecordStore) CreateSession(sess *models.UserSession) error {
	if err := s.db.Create(sess).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// EnsureEmotionLabel upserts a label into the lookup registry by name.
func (s *RecordStore) EnsureEmotionLabel(name string) error {
	label := models.EmotionLabel{ID: uuid.New(), Name: name}
	err := s.db.Where("name = ?", name).
		FirstOrCreate(&label, models.EmotionLabel{Name: name}).Error
	if err != nil {
		return fmt.Errorf("failed to ensure emotion label %q: %w", name, err)
	}
	return nil
}

// EnsureBaselineLabels seeds the fixed starting vocabulary.
func (s *RecordStore) EnsureBaselineLabels() error {
	for _, name := range models.BaselineEmotions {
		if err := s.EnsureEmotionLabel(name); err != nil {
			return err
		}
	}
	return nil
}

// Query returns records across the given sessions ordered by timestamp
// ascending. from/to bound the stored UTC timestamp when non-nil.
func (s *RecordStore) Query(sessionIDs []uuid.UUID, from, to *time.Time) ([]models.AnalysisRecord, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	q := s.db.Where("session_id IN ?", sessionIDs)
	if from != nil {
		q = q.Where("timestamp >= ?", *from)
	}
	if to != nil {
		q = q.Where("timestamp <= ?", *to)
	}
	var records []models.AnalysisRecord
	if err := q.Order("timestamp ASC, created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return records, nil
}

// QueryDesc returns records across the given sessions newest first,
// optionally filtered to an exact emotion label.
func (s *RecordStore) QueryDesc(sessionIDs []uuid.UUID, emotion string) ([]models.AnalysisRecord, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	q := s.db.Where("session_id IN ?", sessionIDs)
	if emotion != "" {
		q = q.Where("emotion = ?", emotion)
	}
	var records []models.AnalysisRecord
	if err := q.Order("timestamp DESC, created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return records, nil
}

// RecentDuplicate finds a record in the session with the same emotion,
// a timestamp at or after since, and a confidence within 0.01. This is
// the sliding-window retry guard, not a unique constraint.
func (s *RecordStore) RecentDuplicate(sessionID uuid.UUID, emotion string, confidence float64, since time.Time) (*models.AnalysisRecord, error) {
	var candidates []models.AnalysisRecord
	err := s.db.Where("session_id = ? AND emotion = ? AND timestamp >= ?", sessionID, emotion, since).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	for i := range candidates {
		if math.Abs(candidates[i].Confidence-confidence) < 0.01 {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func (s *RecordStore) Append(rec *models.AnalysisRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// FindUserRecord returns a record only if it belongs to one of the
// user's sessions.
func (s *RecordStore) FindUserRecord(userID, recordID uuid.UUID) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	err := s.db.Where("id = ? AND session_id IN (?)", recordID,
		s.db.Model(&models.UserSession{}).Select("id").Where("user_id = ?", userID)).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &rec, nil
}
