package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus enumerates the lifecycle of one feedback item.
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Terminal reports whether no further pipeline stage runs for the item.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Sentiment is the overall label assigned by the sentiment stage.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Categories lists the accepted feedback categories.
var Categories = []string{"general", "service", "product", "support", "billing", "technical"}

// ValidCategory reports whether the (lowercased, trimmed) value is accepted.
func ValidCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// MaxKeyPhrases caps the extracted key phrase list on a sentiment result.
const MaxKeyPhrases = 10

// NewID generates an opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

// FeedbackItem is the aggregate root: one submitted piece of feedback plus
// whichever pipeline children exist at the moment of serialization.
type FeedbackItem struct {
	ID               string           `json:"id"`
	Text             string           `json:"text"`
	Category         string           `json:"category"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Sentiment *SentimentResult   `json:"sentiment_analysis,omitempty"`
	Response  *GeneratedResponse `json:"ai_response,omitempty"`
	Audio     *AudioArtifact     `json:"audio_file,omitempty"`
	AudioURL  string             `json:"audio_url,omitempty"`
}

// NewFeedbackItem creates a feedback record in the initial processing state.
func NewFeedbackItem(text, category string) *FeedbackItem {
	now := time.Now().UTC()
	return &FeedbackItem{
		ID:               NewID(),
		Text:             text,
		Category:         category,
		ProcessingStatus: StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AttachAudioURL derives the serving URL from the audio child, if present.
func (f *FeedbackItem) AttachAudioURL() {
	if f.Audio != nil {
		f.AudioURL = "/api/v1/audio/" + f.Audio.ID
	}
}

// ConfidenceScores is the per-class confidence breakdown.
type ConfidenceScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// SentenceSentiment is a per-sentence slice of the analysis.
type SentenceSentiment struct {
	Text            string    `json:"text"`
	Sentiment       Sentiment `json:"sentiment"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// AspectMention is one side of a mined opinion (target or assessment).
type AspectMention struct {
	Text            string    `json:"text"`
	Sentiment       Sentiment `json:"sentiment"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// Opinion pairs an aspect target with the assessments made about it.
type Opinion struct {
	Target      AspectMention   `json:"target"`
	Assessments []AspectMention `json:"assessments"`
}

// SentimentResult is the stage-1 child, one per feedback item.
type SentimentResult struct {
	ID              string    `json:"id"`
	FeedbackID      string    `json:"feedback_id"`
	Sentiment       Sentiment `json:"sentiment"`
	ConfidenceScore float64   `json:"confidence_score"`

	Scores     ConfidenceScores    `json:"confidence_scores"`
	KeyPhrases []string            `json:"key_phrases"`
	Sentences  []SentenceSentiment `json:"sentences,omitempty"`
	Opinions   []Opinion           `json:"opinions,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// GeneratedResponse is the stage-2 child, one per feedback item.
type GeneratedResponse struct {
	ID           string    `json:"id"`
	FeedbackID   string    `json:"feedback_id"`
	ResponseText string    `json:"response_text"`
	ModelUsed    string    `json:"model_used"`
	TokensUsed   int       `json:"tokens_used"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// StorageKind tags which audio location is authoritative.
type StorageKind string

const (
	StorageLocal StorageKind = "local"
	StorageBlob  StorageKind = "blob"
)

// AudioArtifact is the optional stage-3 child. Absence means audio was
// skipped or failed; that never fails the pipeline.
type AudioArtifact struct {
	ID              string      `json:"id"`
	FeedbackID      string      `json:"feedback_id"`
	FilePath        string      `json:"file_path"`
	BlobURL         string      `json:"blob_url,omitempty"`
	StorageKind     StorageKind `json:"storage_type"`
	FileSize        int64       `json:"file_size"`
	DurationSeconds float64     `json:"duration_seconds"`
	VoiceUsed       string      `json:"voice_used"`
	EmotionStyle    string      `json:"emotion_style"`
	CreatedAt       time.Time   `json:"created_at"`
}

// DashboardStats aggregates counts for the dashboard endpoint.
type DashboardStats struct {
	TotalFeedback      int             `json:"total_feedback"`
	SentimentBreakdown map[string]int  `json:"sentiment_breakdown"`
	CategoryBreakdown  map[string]int  `json:"category_breakdown"`
	RecentFeedback     []*FeedbackItem `json:"recent_feedback"`
}
