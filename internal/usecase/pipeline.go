package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Repository  ports.FeedbackRepository
	Sentiment   ports.SentimentAnalyzer
	Responder   ports.ResponseGenerator
	Speech      ports.SpeechSynthesizer
	Broadcaster ports.Broadcaster
	Logger      *slog.Logger
}

// Pipeline runs the three-stage analysis sequence for one feedback item:
// sentiment, response generation, then best-effort audio synthesis. Each
// stage commits before the next starts, and every committed transition is
// broadcast to connected viewers.
type Pipeline struct {
	repository  ports.FeedbackRepository
	sentiment   ports.SentimentAnalyzer
	responder   ports.ResponseGenerator
	speech      ports.SpeechSynthesizer
	broadcaster ports.Broadcaster
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		repository:  deps.Repository,
		sentiment:   deps.Sentiment,
		responder:   deps.Responder,
		speech:      deps.Speech,
		broadcaster: deps.Broadcaster,
		logger:      logger,
	}
}

// Process takes the feedback item through the full pipeline and leaves it
// in a terminal state. Stage 1/2 failures are terminal; stage 3 failures
// are logged and ignored. Any panic marks the item failed so viewers are
// never left with a stale processing status.
func (p *Pipeline) Process(ctx context.Context, id string) (err error) {
	item, fetchErr := p.repository.GetFeedback(ctx, id)
	if fetchErr != nil {
		if errors.Is(fetchErr, ports.ErrNotFound) {
			return fmt.Errorf("feedback %s not found", id)
		}
		return fmt.Errorf("fetch feedback %s: %w", id, fetchErr)
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline stage panicked", "feedback_id", id, "panic", r)
			p.finalize(ctx, item, false)
			err = fmt.Errorf("pipeline panic for feedback %s: %v", id, r)
		}
	}()

	p.logger.Info("pipeline run started", "feedback_id", id, "category", item.Category)

	if !p.runSentimentStage(ctx, item) {
		p.finalize(ctx, item, false)
		return nil
	}

	if !p.runResponseStage(ctx, item) {
		p.finalize(ctx, item, false)
		return nil
	}

	p.runAudioStage(ctx, item)

	p.finalize(ctx, item, true)
	return nil
}

// runSentimentStage is load-bearing: nothing downstream can run without it.
func (p *Pipeline) runSentimentStage(ctx context.Context, item *domain.FeedbackItem) bool {
	outcome := p.sentiment.Analyze(ctx, item.Text)
	if !outcome.Success || outcome.Data == nil {
		p.logger.Error("sentiment analysis failed",
			"feedback_id", item.ID, "service", outcome.ServiceUsed, "error", outcome.Err)
		return false
	}

	result := outcome.Data
	result.ID = domain.NewID()
	result.FeedbackID = item.ID
	result.ProcessedAt = time.Now().UTC()
	if len(result.KeyPhrases) > domain.MaxKeyPhrases {
		result.KeyPhrases = result.KeyPhrases[:domain.MaxKeyPhrases]
	}

	if err := p.repository.SaveSentiment(ctx, result); err != nil {
		p.logger.Error("persist sentiment failed", "feedback_id", item.ID, "error", err)
		return false
	}

	item.Sentiment = result
	p.logger.Info("sentiment analysis saved",
		"feedback_id", item.ID,
		"sentiment", result.Sentiment,
		"confidence", result.ConfidenceScore,
		"service", outcome.ServiceUsed)

	p.notify(ctx, item)
	return true
}

func (p *Pipeline) runResponseStage(ctx context.Context, item *domain.FeedbackItem) bool {
	outcome := p.responder.Generate(ctx, item.Text, item.Sentiment)
	if !outcome.Success || outcome.Data == nil {
		p.logger.Error("response generation failed",
			"feedback_id", item.ID, "service", outcome.ServiceUsed, "error", outcome.Err)
		return false
	}

	response := outcome.Data
	response.ID = domain.NewID()
	response.FeedbackID = item.ID
	response.GeneratedAt = time.Now().UTC()

	if err := p.repository.SaveResponse(ctx, response); err != nil {
		p.logger.Error("persist response failed", "feedback_id", item.ID, "error", err)
		return false
	}

	item.Response = response
	p.logger.Info("response generated",
		"feedback_id", item.ID, "model", response.ModelUsed, "service", outcome.ServiceUsed)

	p.notify(ctx, item)
	return true
}

// runAudioStage is best-effort: any failure, including a panic inside the
// provider, leaves the terminal outcome untouched.
func (p *Pipeline) runAudioStage(ctx context.Context, item *domain.FeedbackItem) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("audio synthesis panicked", "feedback_id", item.ID, "panic", r)
		}
	}()

	outcome := p.speech.Synthesize(ctx, item.ID, item.Response.ResponseText, item.Sentiment)
	if !outcome.Success || outcome.Data == nil {
		p.logger.Warn("audio synthesis skipped",
			"feedback_id", item.ID, "service", outcome.ServiceUsed, "error", outcome.Err)
		return
	}

	artifact := outcome.Data
	artifact.ID = domain.NewID()
	artifact.FeedbackID = item.ID
	artifact.CreatedAt = time.Now().UTC()

	if err := p.repository.SaveAudio(ctx, artifact); err != nil {
		p.logger.Warn("persist audio failed", "feedback_id", item.ID, "error", err)
		return
	}

	item.Audio = artifact
	p.logger.Info("audio artifact saved",
		"feedback_id", item.ID, "voice", artifact.VoiceUsed, "style", artifact.EmotionStyle)

	p.notify(ctx, item)
}

// finalize commits the terminal status and notifies viewers. A persistence
// error here is logged; the notification still goes out with the in-memory
// snapshot so clients see a terminal state.
func (p *Pipeline) finalize(ctx context.Context, item *domain.FeedbackItem, succeeded bool) {
	if item.ProcessingStatus.Terminal() {
		return
	}

	status := domain.StatusCompleted
	if !succeeded {
		status = domain.StatusFailed
	}

	if err := p.repository.UpdateStatus(ctx, item.ID, status); err != nil {
		p.logger.Error("persist terminal status failed",
			"feedback_id", item.ID, "status", status, "error", err)
	}
	item.ProcessingStatus = status
	item.UpdatedAt = time.Now().UTC()

	p.notify(ctx, item)
	p.logger.Info("pipeline run finished", "feedback_id", item.ID, "status", status)
}

// notify broadcasts the freshest snapshot it can get: the hydrated row when
// the fetch works, the in-memory item otherwise.
func (p *Pipeline) notify(ctx context.Context, item *domain.FeedbackItem) {
	if p.broadcaster == nil {
		return
	}

	snapshot := item
	if hydrated, err := p.repository.GetFeedback(ctx, item.ID); err == nil {
		hydrated.ProcessingStatus = item.ProcessingStatus
		snapshot = hydrated
	}

	snapshot.AttachAudioURL()
	p.broadcaster.FeedbackUpdated(snapshot)
}
