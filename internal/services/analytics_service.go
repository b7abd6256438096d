package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/moodtune/moodtune-backend/internal/dto"
	"github.com/moodtune/moodtune-backend/internal/models"
)

var ErrInvalidEmotion = errors.New("emotion is required")

// dedupWindow and dedupTolerance define the retry guard of the write
// path: a submission matching an existing record in the same session on
// emotion, confidence (within tolerance) and recency is treated as
// already accepted.
const (
	dedupWindow    = 30 * time.Second
	dedupTolerance = 0.01
)

// weekdayLabels is the fixed Monday-first order of the weekly activity
// response, regardless of which day is "today".
var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// trendWeeks is how many Monday-start weeks the emotion trend covers.
const trendWeeks = 8

var positiveEmotions = map[string]bool{"happy": true, "energetic": true, "relaxed": true}
var negativeEmotions = map[string]bool{"sad": true, "angry": true}

// RecommendationProvider fetches track recommendations for an emotion
// using the caller's access credential. Best effort: failures degrade to
// an empty track list, never to a failed request.
type RecommendationProvider interface {
	Recommend(ctx context.Context, emotion, accessToken string) (json.RawMessage, error)
}

// AnalyticsService is the write path (ingestion guard) and read path
// (aggregation engine + history assembler) over a user's analysis
// records.
type AnalyticsService struct {
	db               *gorm.DB
	store            *RecordStore
	recommender      RecommendationProvider
	recommendTimeout time.Duration
}

func NewAnalyticsService(db *gorm.DB, recommender RecommendationProvider, recommendTimeout time.Duration) *AnalyticsService {
	return &AnalyticsService{
		db:               db,
		store:            NewRecordStore(db),
		recommender:      recommender,
		recommendTimeout: recommendTimeout,
	}
}

// SaveAnalysis appends a new analysis record for the user, creating an
// open session when none exists. Duplicate submissions inside the dedup
// window are acknowledged without a second write. The whole operation
// runs in one transaction; a failure leaves no partial state.
func (s *AnalyticsService) SaveAnalysis(userID uuid.UUID, req *dto.SaveAnalysisRequest) (*dto.SaveAnalysisResponse, error) {
	if req.Emotion == "" {
		return nil, ErrInvalidEmotion
	}

	var resp *dto.SaveAnalysisResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		now := time.Now().UTC()

		sess, err := store.LatestOpenSession(userID)
		if err != nil {
			return err
		}
		if sess == nil {
			sess = &models.UserSession{
				ID:        uuid.New(),
				UserID:    userID,
				StartedAt: now,
			}
			if err := store.CreateSession(sess); err != nil {
				return err
			}
		}

		if err := store.EnsureEmotionLabel(req.Emotion); err != nil {
			return err
		}

		dup, err := store.RecentDuplicate(sess.ID, req.Emotion, req.Confidence, now.Add(-dedupWindow))
		if err != nil {
			return err
		}
		if dup != nil {
			resp = &dto.SaveAnalysisResponse{
				Accepted: true,
				RecordID: dup.ID.String(),
				Message:  "Analysis already saved recently",
			}
			return nil
		}

		rec := &models.AnalysisRecord{
			ID:               uuid.New(),
			SessionID:        sess.ID,
			Emotion:          req.Emotion,
			Confidence:       req.Confidence,
			EmotionsDetected: toJSONMap(req.EmotionsDetected),
			Recommendations:  datatypes.JSON(req.Recommendations),
			Timestamp:        now,
		}
		if err := store.Append(rec); err != nil {
			return err
		}

		resp = &dto.SaveAnalysisResponse{
			Accepted: true,
			RecordID: rec.ID.String(),
			Message:  "Analysis saved successfully",
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return resp, nil
}

// ComputeStats builds the full dashboard aggregate for a user, localized
// to the given timezone name (UTC fallback). A user with no sessions or
// records gets the zero baseline, never an error.
func (s *AnalyticsService) ComputeStats(userID uuid.UUID, timezoneName string) (*dto.UserStatsResponse, error) {
	loc := ResolveTimezone(timezoneName)

	sessionIDs, err := s.store.SessionIDs(userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Query(sessionIDs, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return zeroStats(), nil
	}

	now := time.Now()
	total := len(records)

	// Frequency counts in timestamp order. The label slice keeps the
	// first-encountered order so the most-frequent tie-break is
	// deterministic across calls.
	var labels []string
	counts := make(map[string]int, 8)
	var totalConfidence float64
	hourly := make([]int, 24)
	for i := range records {
		rec := &records[i]
		if _, seen := counts[rec.Emotion]; !seen {
			labels = append(labels, rec.Emotion)
		}
		counts[rec.Emotion]++
		totalConfidence += rec.Confidence

		// Hourly buckets use the stored UTC hour, not the localized one.
		// Weekly activity and streaks localize; this histogram does not.
		hourly[rec.Timestamp.UTC().Hour()]++
	}

	distribution := make([]dto.EmotionStat, 0, len(labels))
	mostFrequent := labels[0]
	for _, label := range labels {
		count := counts[label]
		distribution = append(distribution, dto.EmotionStat{
			Emotion:    label,
			Count:      count,
			Percentage: float64(count) / float64(total) * 100,
		})
		if count > counts[mostFrequent] {
			mostFrequent = label
		}
	}

	weekly, err := s.weeklyActivity(sessionIDs, loc, now)
	if err != nil {
		return nil, err
	}
	trend, err := s.weeklyEmotionTrend(sessionIDs, loc, now)
	if err != nil {
		return nil, err
	}

	balance := dto.SentimentBalance{}
	for label, count := range counts {
		switch {
		case positiveEmotions[label]:
			balance.Positive += count
		case negativeEmotions[label]:
			balance.Negative += count
		}
	}

	return &dto.UserStatsResponse{
		TotalAnalyses:        total,
		MostFrequentEmotion:  &mostFrequent,
		AverageConfidence:    totalConfidence / float64(total),
		Streak:               calculateStreak(records, loc, now),
		EmotionsDistribution: distribution,
		WeeklyActivity:       weekly,
		HourlyActivity:       hourly,
		WeeklyEmotionTrend:   trend,
		Balance:              balance,
	}, nil
}

// weeklyActivity counts records per local weekday inside the current
// local Monday-start week. The window endpoints are converted to UTC for
// the store query; matched records are bucketed by their local weekday.
func (s *AnalyticsService) weeklyActivity(sessionIDs []uuid.UUID, loc *time.Location, now time.Time) ([]dto.WeekdayActivity, error) {
	from, to := localWeekWindow(now.In(loc), 0)
	fromUTC, toUTC := from.UTC(), to.UTC()

	records, err := s.store.Query(sessionIDs, &fromUTC, &toUTC)
	if err != nil {
		return nil, err
	}

	buckets := make([]int, 7)
	for i := range records {
		buckets[weekdayIndex(records[i].Timestamp.In(loc).Weekday())]++
	}

	activity := make([]dto.WeekdayActivity, 7)
	for i, day := range weekdayLabels {
		activity[i] = dto.WeekdayActivity{Day: day, AnalysesCount: buckets[i]}
	}
	return activity, nil
}

// weeklyEmotionTrend builds per-week emotion frequency maps for the last
// trendWeeks local Monday-start weeks, oldest first.
func (s *AnalyticsService) weeklyEmotionTrend(sessionIDs []uuid.UUID, loc *time.Location, now time.Time) ([]dto.WeeklyEmotionTrend, error) {
	local := now.In(loc)
	trend := make([]dto.WeeklyEmotionTrend, 0, trendWeeks)
	for offset := trendWeeks - 1; offset >= 0; offset-- {
		from, to := localWeekWindow(local, offset)
		fromUTC, toUTC := from.UTC(), to.UTC()

		records, err := s.store.Query(sessionIDs, &fromUTC, &toUTC)
		if err != nil {
			return nil, err
		}

		freq := make(map[string]int)
		for i := range records {
			freq[records[i].Emotion]++
		}
		trend = append(trend, dto.WeeklyEmotionTrend{
			WeekStart: from.Format("2006-01-02"),
			Emotions:  freq,
		})
	}
	return trend, nil
}

// History returns the user's records newest first, localized to the
// resolved timezone, with recommendations attached. Stored
// recommendations win; otherwise the external provider is consulted when
// requested and a credential is present, degrading to an empty list on
// any failure.
func (s *AnalyticsService) History(userID uuid.UUID, timezoneName, emotionFilter string, includeRecommendations bool, accessToken string) (*dto.HistoryResponse, error) {
	loc := ResolveTimezone(timezoneName)

	sessionIDs, err := s.store.SessionIDs(userID)
	if err != nil {
		return nil, err
	}
	if emotionFilter == "all" {
		emotionFilter = ""
	}
	records, err := s.store.QueryDesc(sessionIDs, emotionFilter)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.HistoryEntry, 0, len(records))
	for i := range records {
		entries = append(entries, s.assembleEntry(&records[i], loc, includeRecommendations, accessToken))
	}
	return &dto.HistoryResponse{Analyses: entries, Total: len(entries)}, nil
}

// AnalysisDetail returns a single record as a history entry, localized.
// Stored recommendations only; no external fetch on the detail path.
func (s *AnalyticsService) AnalysisDetail(userID, recordID uuid.UUID, timezoneName string) (*dto.HistoryEntry, error) {
	rec, err := s.store.FindUserRecord(userID, recordID)
	if err != nil {
		return nil, err
	}
	entry := s.assembleEntry(rec, ResolveTimezone(timezoneName), false, "")
	return &entry, nil
}

func (s *AnalyticsService) assembleEntry(rec *models.AnalysisRecord, loc *time.Location, includeRecommendations bool, accessToken string) dto.HistoryEntry {
	var date *time.Time
	if !rec.Timestamp.IsZero() {
		local := rec.Timestamp.In(loc)
		date = &local
	}

	tracks := []any{}
	if len(rec.Recommendations) > 0 && string(rec.Recommendations) != "null" {
		tracks = NormalizeTracks(rec.Recommendations)
	} else if includeRecommendations && accessToken != "" && s.recommender != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.recommendTimeout)
		raw, err := s.recommender.Recommend(ctx, rec.Emotion, accessToken)
		cancel()
		if err != nil {
			slog.Warn("recommendation fetch failed", "record_id", rec.ID, "emotion", rec.Emotion, "error", err)
		} else {
			tracks = NormalizeTracks(raw)
		}
	}

	return dto.HistoryEntry{
		ID:               rec.ID.String(),
		Emotion:          rec.Emotion,
		Confidence:       rec.Confidence,
		Date:             date,
		EmotionsDetected: toFloatMap(rec.EmotionsDetected),
		Recommendations:  tracks,
	}
}

// calculateStreak counts consecutive local calendar days with at least
// one record, ending today. A gap between today and the newest record
// breaks the streak at zero. records must be ordered timestamp ascending.
func calculateStreak(records []models.AnalysisRecord, loc *time.Location, now time.Time) int {
	if len(records) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(records))
	var dates []time.Time
	for i := len(records) - 1; i >= 0; i-- {
		local := records[i].Timestamp.In(loc)
		key := local.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, localMidnight(local))
	}

	streak := 0
	expected := localMidnight(now.In(loc))
	for _, d := range dates {
		if !d.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

// localWeekWindow returns the inclusive bounds of the Monday-start week
// containing local, shifted back weeksAgo weeks: [Monday 00:00:00,
// Sunday 23:59:59.999999] in local time.
func localWeekWindow(local time.Time, weeksAgo int) (time.Time, time.Time) {
	start := localMidnight(local).AddDate(0, 0, -weekdayIndex(local.Weekday())-7*weeksAgo)
	end := start.AddDate(0, 0, 7).Add(-time.Microsecond)
	return start, end
}

// weekdayIndex maps time.Weekday (Sunday=0) to Monday=0..Sunday=6.
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func zeroStats() *dto.UserStatsResponse {
	weekly := make([]dto.WeekdayActivity, 7)
	for i, day := range weekdayLabels {
		weekly[i] = dto.WeekdayActivity{Day: day, AnalysesCount: 0}
	}
	return &dto.UserStatsResponse{
		TotalAnalyses:        0,
		MostFrequentEmotion:  nil,
		AverageConfidence:    0,
		Streak:               0,
		EmotionsDistribution: []dto.EmotionStat{},
		WeeklyActivity:       weekly,
		HourlyActivity:       make([]int, 24),
		WeeklyEmotionTrend:   []dto.WeeklyEmotionTrend{},
		Balance:              dto.SentimentBalance{},
	}
}

func toJSONMap(m map[string]float64) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toFloatMap(m datatypes.JSONMap) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}
