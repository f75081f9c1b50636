package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
	"FeedbackAnalyzer/internal/provider"
)

const (
	serviceName  = "azure_speech"
	outputFormat = "audio-16khz-128kbitrate-mono-mp3"

	// Audio is best-effort, so it gets fewer retries than the other stages.
	retryAttempts = 1
	retryDelay    = 2 * time.Second
)

// Synthesizer narrates generated responses through the Azure TTS REST
// endpoint, writing the mp3 locally and promoting it to blob storage when
// a store is configured. Unlike the other providers it has no fallback:
// without credentials the outcome is non-success and the caller skips.
type Synthesizer struct {
	key       string
	endpoint  string
	available bool
	audioDir  string
	blob      ports.BlobStore
	http      *http.Client
	logger    *slog.Logger
}

var _ ports.SpeechSynthesizer = (*Synthesizer)(nil)

// NewSynthesizer builds the provider; availability is decided once from
// credential presence.
func NewSynthesizer(cfg config.SpeechConfig, audioDir string, blob ports.BlobStore, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		key:       cfg.Key,
		endpoint:  fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region),
		available: cfg.Configured(),
		audioDir:  audioDir,
		blob:      blob,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Available reports whether the remote backend can be reached at all.
func (s *Synthesizer) Available() bool {
	return s.available
}

// Synthesize narrates the text with an emotion-adapted voice and returns
// the stored artifact. Non-success outcomes mean skip, never pipeline
// failure.
func (s *Synthesizer) Synthesize(ctx context.Context, feedbackID, text string, sentiment *domain.SentimentResult) provider.AudioOutcome {
	if !s.available {
		return provider.AudioOutcome{
			Outcome: provider.Outcome{Err: "speech service not available", ServiceUsed: provider.ServiceNone},
		}
	}

	label := domain.SentimentNeutral
	confidence := 0.5
	if sentiment != nil {
		label = sentiment.Sentiment
		confidence = sentiment.ConfidenceScore
	}

	ssml := buildSSML(text, label, confidence)

	var audio []byte
	err := provider.Retry(ctx, s.logger, "synthesize speech", retryAttempts, retryDelay, func() error {
		var callErr error
		audio, callErr = s.synthesizeRemote(ctx, ssml)
		return callErr
	})
	if err != nil {
		return provider.AudioOutcome{
			Outcome: provider.Outcome{Err: err.Error(), ServiceUsed: serviceName},
		}
	}

	artifact, err := s.store(ctx, feedbackID, audio)
	if err != nil {
		return provider.AudioOutcome{
			Outcome: provider.Outcome{Err: err.Error(), ServiceUsed: serviceName},
		}
	}

	artifact.DurationSeconds = EstimateDuration(text)
	artifact.VoiceUsed = voiceForSentiment(label)
	artifact.EmotionStyle = emotionStyle(label, confidence)

	return provider.AudioOutcome{
		Outcome: provider.Outcome{Success: true, ServiceUsed: serviceName},
		Data:    artifact,
	}
}

func (s *Synthesizer) synthesizeRemote(ctx context.Context, ssml string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("synthesis error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned no audio")
	}
	return audio, nil
}

// store writes the mp3 locally and, when a blob store is configured,
// promotes it there. A failed upload keeps the local copy authoritative.
func (s *Synthesizer) store(ctx context.Context, feedbackID string, audio []byte) (*domain.AudioArtifact, error) {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	fileName := feedbackID + ".mp3"
	localPath := filepath.Join(s.audioDir, fileName)
	if err := os.WriteFile(localPath, audio, 0o644); err != nil {
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	artifact := &domain.AudioArtifact{
		FilePath:    localPath,
		StorageKind: domain.StorageLocal,
		FileSize:    int64(len(audio)),
	}

	if s.blob != nil && s.blob.Available() {
		url, size, err := s.blob.Upload(ctx, fileName, localPath)
		if err != nil {
			s.logger.Warn("blob upload failed, keeping local copy", "feedback_id", feedbackID, "error", err)
		} else {
			artifact.BlobURL = url
			artifact.StorageKind = domain.StorageBlob
			if size > 0 {
				artifact.FileSize = size
			}
		}
	}

	return artifact, nil
}
