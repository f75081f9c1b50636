package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/provider"
)

func TestWorkerProcessesEnqueuedItems(t *testing.T) {
	first := domain.NewFeedbackItem("the product is great and works well", "product")
	second := domain.NewFeedbackItem("delivery was terrible and slow", "service")
	repo := newMemoryRepo(first, second)

	p := newTestPipeline(repo,
		stubSentiment{goodSentiment()},
		stubResponder{goodResponse()},
		stubSpeech{outcome: provider.AudioOutcome{Outcome: provider.Outcome{ServiceUsed: provider.ServiceNone}}},
		&recordingBroadcaster{})

	queue := NewJobQueue()
	worker := NewWorker(queue, p, testLogger())
	worker.Start(context.Background())
	defer worker.Stop(time.Second)

	queue.Enqueue(first.ID)
	queue.Enqueue(second.ID)

	require.Eventually(t, func() bool {
		return repo.status(first.ID).Terminal() && repo.status(second.ID).Terminal()
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, domain.StatusCompleted, repo.status(first.ID))
	assert.Equal(t, domain.StatusCompleted, repo.status(second.ID))
}

func TestWorkerSurvivesUnknownID(t *testing.T) {
	item := domain.NewFeedbackItem("some feedback text here", "general")
	repo := newMemoryRepo(item)

	p := newTestPipeline(repo,
		stubSentiment{goodSentiment()},
		stubResponder{goodResponse()},
		stubSpeech{outcome: provider.AudioOutcome{Outcome: provider.Outcome{ServiceUsed: provider.ServiceNone}}},
		&recordingBroadcaster{})

	queue := NewJobQueue()
	worker := NewWorker(queue, p, testLogger())
	worker.Start(context.Background())
	defer worker.Stop(time.Second)

	queue.Enqueue("does-not-exist")
	queue.Enqueue(item.ID)

	require.Eventually(t, func() bool {
		return repo.status(item.ID).Terminal()
	}, 3*time.Second, 10*time.Millisecond)
}

// slowSentiment holds the run inside stage 1 long enough for a shutdown to
// race it, and surfaces cancellation the way a real network client would.
type slowSentiment struct {
	delay   time.Duration
	outcome provider.SentimentOutcome
}

func (s slowSentiment) Available() bool { return true }

func (s slowSentiment) Analyze(ctx context.Context, _ string) provider.SentimentOutcome {
	select {
	case <-time.After(s.delay):
		return s.outcome
	case <-ctx.Done():
		return provider.SentimentOutcome{
			Outcome: provider.Outcome{Err: ctx.Err().Error(), ServiceUsed: provider.ServiceNone},
		}
	}
}

func TestWorkerStopLetsInFlightRunFinish(t *testing.T) {
	item := domain.NewFeedbackItem("shutdown must not abandon this item", "general")
	repo := newMemoryRepo(item)

	p := newTestPipeline(repo,
		slowSentiment{delay: 200 * time.Millisecond, outcome: goodSentiment()},
		stubResponder{goodResponse()},
		stubSpeech{outcome: provider.AudioOutcome{Outcome: provider.Outcome{ServiceUsed: provider.ServiceNone}}},
		&recordingBroadcaster{})

	queue := NewJobQueue()
	worker := NewWorker(queue, p, testLogger())
	worker.Start(context.Background())

	queue.Enqueue(item.ID)
	time.Sleep(50 * time.Millisecond) // run is now inside the sentiment stage

	worker.Stop(2 * time.Second)

	assert.Equal(t, domain.StatusCompleted, repo.status(item.ID))
	require.NotNil(t, repo.sentiments[item.ID])
	require.NotNil(t, repo.responses[item.ID])
}

func TestWorkerStartTwiceIsNoop(t *testing.T) {
	queue := NewJobQueue()
	p := newTestPipeline(newMemoryRepo(),
		stubSentiment{goodSentiment()},
		stubResponder{goodResponse()},
		stubSpeech{outcome: provider.AudioOutcome{}},
		&recordingBroadcaster{})

	worker := NewWorker(queue, p, testLogger())
	worker.Start(context.Background())
	worker.Start(context.Background())
	worker.Stop(time.Second)
}

func TestWorkerStopBeforeStartIsNoop(t *testing.T) {
	queue := NewJobQueue()
	worker := NewWorker(queue, nil, testLogger())
	worker.Stop(time.Second)
}
