package ports

import (
	"context"
	"errors"
	"io"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/provider"
)

// ErrNotFound is returned by repositories when the requested row is absent.
var ErrNotFound = errors.New("not found")

// ListQuery carries pagination and filtering for feedback listings.
type ListQuery struct {
	Page     int
	PerPage  int
	Category string
}

// FeedbackRepository persists the aggregate and its pipeline children.
// Child writes replace any existing row for the same feedback id, so
// reprocessing a duplicate enqueue is safe.
type FeedbackRepository interface {
	Ping(ctx context.Context) error
	CreateFeedback(ctx context.Context, item *domain.FeedbackItem) error
	GetFeedback(ctx context.Context, id string) (*domain.FeedbackItem, error)
	ListFeedback(ctx context.Context, q ListQuery) ([]*domain.FeedbackItem, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus) error
	SaveSentiment(ctx context.Context, result *domain.SentimentResult) error
	SaveResponse(ctx context.Context, response *domain.GeneratedResponse) error
	SaveAudio(ctx context.Context, artifact *domain.AudioArtifact) error
	GetAudio(ctx context.Context, audioID string) (*domain.AudioArtifact, error)
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// SentimentAnalyzer scores raw feedback text. Unavailable or erroring
// backends fall back to a deterministic heuristic rather than failing.
type SentimentAnalyzer interface {
	Available() bool
	Analyze(ctx context.Context, text string) provider.SentimentOutcome
}

// ResponseGenerator produces an empathetic reply from the text and the
// persisted sentiment context. Falls back to canned responses.
type ResponseGenerator interface {
	Available() bool
	Generate(ctx context.Context, text string, sentiment *domain.SentimentResult) provider.ResponseOutcome
}

// SpeechSynthesizer narrates the generated response. When unavailable it
// returns a non-success outcome with no fallback; callers skip, not fail.
type SpeechSynthesizer interface {
	Available() bool
	Synthesize(ctx context.Context, feedbackID, text string, sentiment *domain.SentimentResult) provider.AudioOutcome
}

// BlobStore holds synthesized audio durably.
type BlobStore interface {
	Available() bool
	Upload(ctx context.Context, key, localPath string) (url string, size int64, err error)
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobQueue accepts feedback ids for background processing.
type JobQueue interface {
	Enqueue(id string)
}

// Broadcaster pushes a persisted-state snapshot to every connected viewer.
type Broadcaster interface {
	FeedbackUpdated(item *domain.FeedbackItem)
}
