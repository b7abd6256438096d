package dto

import (
	"encoding/json"
	"time"
)

type SaveAnalysisRequest struct {
	Emotion          string             `json:"emotion"`
	Confidence       float64            `json:"confidence"`
	EmotionsDetected map[string]float64 `json:"emotions_detected"`
	Recommendations  json.RawMessage    `json:"recommendations"`
}

type SaveAnalysisResponse struct {
	Accepted bool   `json:"accepted"`
	RecordID string `json:"record_id,omitempty"`
	Message  string `json:"message"`
}

type EmotionStat struct {
	Emotion    string  `json:"emotion"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type WeekdayActivity struct {
	Day           string `json:"day"`
	AnalysesCount int    `json:"analyses_count"`
}

type WeeklyEmotionTrend struct {
	WeekStart string         `json:"week_start"`
	Emotions  map[string]int `json:"emotions"`
}

type SentimentBalance struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

type UserStatsResponse struct {
	TotalAnalyses        int                  `json:"total_analyses"`
	MostFrequentEmotion  *string              `json:"most_frequent_emotion"`
	AverageConfidence    float64              `json:"average_confidence"`
	Streak               int                  `json:"streak"`
	EmotionsDistribution []EmotionStat        `json:"emotions_distribution"`
	WeeklyActivity       []WeekdayActivity    `json:"weekly_activity"`
	HourlyActivity       []int                `json:"hourly_activity"`
	WeeklyEmotionTrend   []WeeklyEmotionTrend `json:"weekly_emotion_trend"`
	Balance              SentimentBalance     `json:"balance"`
}

type HistoryEntry struct {
	ID               string             `json:"id"`
	Emotion          string             `json:"emotion"`
	Confidence       float64            `json:"confidence"`
	Date             *time.Time         `json:"date"`
	EmotionsDetected map[string]float64 `json:"emotions_detected"`
	Recommendations  []any              `json:"recommendations"`
}

type HistoryResponse struct {
	Analyses []HistoryEntry `json:"analyses"`
	Total    int            `json:"total"`
}
