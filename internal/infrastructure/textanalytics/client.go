package textanalytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
	"FeedbackAnalyzer/internal/provider"
)

const (
	serviceName = "azure_text_analytics"
	apiVersion  = "2023-04-01"

	retryAttempts = 2
	retryDelay    = time.Second
)

// Client performs sentiment analysis with opinion mining and key phrase
// extraction against the Azure Language REST API. When credentials are
// missing or the call keeps failing, a deterministic keyword heuristic
// stands in so the stage never fails outright.
type Client struct {
	endpoint  string
	key       string
	available bool
	http      *http.Client
	logger    *slog.Logger
}

var _ ports.SentimentAnalyzer = (*Client)(nil)

// NewClient builds the provider; availability is decided once from
// credential presence.
func NewClient(cfg config.TextAnalyticsConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
		key:       cfg.Key,
		available: cfg.Configured(),
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Available reports whether the remote backend can be reached at all.
func (c *Client) Available() bool {
	return c.available
}

// Analyze scores the text. The outcome always carries usable data: the
// remote analysis when possible, the keyword fallback otherwise.
func (c *Client) Analyze(ctx context.Context, text string) provider.SentimentOutcome {
	if !c.available {
		return fallbackSentiment(text)
	}

	var result *domain.SentimentResult
	err := provider.Retry(ctx, c.logger, "analyze sentiment", retryAttempts, retryDelay, func() error {
		var callErr error
		result, callErr = c.analyzeRemote(ctx, text)
		return callErr
	})
	if err != nil {
		c.logger.Error("sentiment backend failed, using fallback", "error", err)
		return fallbackSentiment(text)
	}

	return provider.SentimentOutcome{
		Outcome: provider.Outcome{Success: true, ServiceUsed: serviceName},
		Data:    result,
	}
}

func (c *Client) analyzeRemote(ctx context.Context, text string) (*domain.SentimentResult, error) {
	doc, err := c.analyzeSentiment(ctx, text)
	if err != nil {
		return nil, err
	}

	result := buildResult(doc)

	// Key phrase extraction failing is not worth losing the sentiment over.
	phrases, err := c.extractKeyPhrases(ctx, text)
	if err != nil {
		c.logger.Warn("key phrase extraction failed", "error", err)
	} else {
		if len(phrases) > domain.MaxKeyPhrases {
			phrases = phrases[:domain.MaxKeyPhrases]
		}
		result.KeyPhrases = phrases
	}

	return result, nil
}

type confidenceScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

func (s confidenceScores) forLabel(label string) float64 {
	switch label {
	case "positive":
		return s.Positive
	case "negative":
		return s.Negative
	default:
		return s.Neutral
	}
}

type mention struct {
	Text             string           `json:"text"`
	Sentiment        string           `json:"sentiment"`
	ConfidenceScores confidenceScores `json:"confidenceScores"`
}

type sentimentSentence struct {
	Text             string           `json:"text"`
	Sentiment        string           `json:"sentiment"`
	ConfidenceScores confidenceScores `json:"confidenceScores"`
	Targets          []mention        `json:"targets"`
	Assessments      []mention        `json:"assessments"`
}

type sentimentDocument struct {
	Sentiment        string              `json:"sentiment"`
	ConfidenceScores confidenceScores    `json:"confidenceScores"`
	Sentences        []sentimentSentence `json:"sentences"`
}

type analyzeResponse struct {
	Results struct {
		Documents []sentimentDocument `json:"documents"`
		Errors    []struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"errors"`
	} `json:"results"`
}

type keyPhraseResponse struct {
	Results struct {
		Documents []struct {
			KeyPhrases []string `json:"keyPhrases"`
		} `json:"documents"`
	} `json:"results"`
}

func (c *Client) analyzeSentiment(ctx context.Context, text string) (*sentimentDocument, error) {
	body := map[string]any{
		"kind": "SentimentAnalysis",
		"parameters": map[string]any{
			"opinionMining": true,
		},
		"analysisInput": map[string]any{
			"documents": []map[string]string{{"id": "1", "language": "en", "text": text}},
		},
	}

	var parsed analyzeResponse
	if err := c.post(ctx, body, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Results.Errors) > 0 {
		return nil, fmt.Errorf("analysis error: %s", parsed.Results.Errors[0].Error.Message)
	}
	if len(parsed.Results.Documents) == 0 {
		return nil, fmt.Errorf("analysis returned no documents")
	}
	return &parsed.Results.Documents[0], nil
}

func (c *Client) extractKeyPhrases(ctx context.Context, text string) ([]string, error) {
	body := map[string]any{
		"kind": "KeyPhraseExtraction",
		"analysisInput": map[string]any{
			"documents": []map[string]string{{"id": "1", "language": "en", "text": text}},
		},
	}

	var parsed keyPhraseResponse
	if err := c.post(ctx, body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Results.Documents) == 0 {
		return nil, fmt.Errorf("key phrase extraction returned no documents")
	}
	return parsed.Results.Documents[0].KeyPhrases, nil
}

func (c *Client) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/language/:analyze-text?api-version=%s", c.endpoint, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func buildResult(doc *sentimentDocument) *domain.SentimentResult {
	result := &domain.SentimentResult{
		Sentiment:       domain.Sentiment(doc.Sentiment),
		ConfidenceScore: doc.ConfidenceScores.forLabel(doc.Sentiment),
		Scores: domain.ConfidenceScores{
			Positive: doc.ConfidenceScores.Positive,
			Neutral:  doc.ConfidenceScores.Neutral,
			Negative: doc.ConfidenceScores.Negative,
		},
		KeyPhrases: []string{},
	}

	for _, sentence := range doc.Sentences {
		result.Sentences = append(result.Sentences, domain.SentenceSentiment{
			Text:            sentence.Text,
			Sentiment:       domain.Sentiment(sentence.Sentiment),
			ConfidenceScore: sentence.ConfidenceScores.forLabel(sentence.Sentiment),
		})

		for _, target := range sentence.Targets {
			opinion := domain.Opinion{
				Target: domain.AspectMention{
					Text:            target.Text,
					Sentiment:       domain.Sentiment(target.Sentiment),
					ConfidenceScore: target.ConfidenceScores.forLabel(target.Sentiment),
				},
			}
			for _, assessment := range sentence.Assessments {
				opinion.Assessments = append(opinion.Assessments, domain.AspectMention{
					Text:            assessment.Text,
					Sentiment:       domain.Sentiment(assessment.Sentiment),
					ConfidenceScore: assessment.ConfidenceScores.forLabel(assessment.Sentiment),
				})
			}
			result.Opinions = append(result.Opinions, opinion)
		}
	}

	return result
}
