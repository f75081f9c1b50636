package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/infrastructure/llm"
	"FeedbackAnalyzer/internal/infrastructure/speech"
	"FeedbackAnalyzer/internal/infrastructure/textanalytics"
	"FeedbackAnalyzer/internal/provider"
)

// With no provider credentials at all, a run still completes: sentiment and
// response come from their fallbacks and audio is skipped.
func TestPipelineCompletesWithAllProvidersUnconfigured(t *testing.T) {
	item := domain.NewFeedbackItem("This product completely changed how I work, thank you!", "product")
	repo := newMemoryRepo(item)
	broadcaster := &recordingBroadcaster{}

	p := NewPipeline(PipelineDeps{
		Repository:  repo,
		Sentiment:   textanalytics.NewClient(config.TextAnalyticsConfig{}, testLogger()),
		Responder:   llm.NewOpenAIClient(config.OpenAIConfig{}, testLogger()),
		Speech:      speech.NewSynthesizer(config.SpeechConfig{}, t.TempDir(), nil, testLogger()),
		Broadcaster: broadcaster,
		Logger:      testLogger(),
	})

	require.NoError(t, p.Process(context.Background(), item.ID))

	assert.Equal(t, domain.StatusCompleted, repo.status(item.ID))

	sentiment := repo.sentiments[item.ID]
	require.NotNil(t, sentiment)
	assert.Equal(t, domain.SentimentNeutral, sentiment.Sentiment)

	response := repo.responses[item.ID]
	require.NotNil(t, response)
	assert.Equal(t, provider.ServiceFallback, response.ModelUsed)
	assert.Zero(t, response.TokensUsed)

	assert.Empty(t, repo.audios)

	statuses := broadcaster.statuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, domain.StatusCompleted, statuses[len(statuses)-1])
}
