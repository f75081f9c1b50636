package llm

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
	serviceName  = "openai"
	systemPrompt = "You are an expert customer service representative known for empathetic, personalized responses."

	retryAttempts = 2
	retryDelay    = time.Second
)

// OpenAIClient generates sentiment-aware replies via an OpenAI-compatible
// chat completions endpoint. When credentials are missing or the API keeps
// failing it answers with a canned response keyed by sentiment.
type OpenAIClient struct {
	endpoint  string
	model     string
	apiKey    string
	available bool
	http      *http.Client
	logger    *slog.Logger
}

var _ ports.ResponseGenerator = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		available: cfg.Configured(),
		http:      &http.Client{Timeout: 20 * time.Second},
		logger:    logger,
	}
}

// Available reports whether the remote backend can be reached at all.
func (c *OpenAIClient) Available() bool {
	return c.available
}

// Generate produces the reply. The outcome always carries usable data:
// the model's answer when possible, the canned fallback otherwise.
func (c *OpenAIClient) Generate(ctx context.Context, text string, sentiment *domain.SentimentResult) provider.ResponseOutcome {
	if !c.available {
		return fallbackResponse(sentiment)
	}

	var response *domain.GeneratedResponse
	err := provider.Retry(ctx, c.logger, "generate response", retryAttempts, retryDelay, func() error {
		var callErr error
		response, callErr = c.complete(ctx, text, sentiment)
		return callErr
	})
	if err != nil {
		c.logger.Error("response backend failed, using fallback", "error", err)
		return fallbackResponse(sentiment)
	}

	return provider.ResponseOutcome{
		Outcome: provider.Outcome{Success: true, ServiceUsed: serviceName},
		Data:    response,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *OpenAIClient) complete(ctx context.Context, text string, sentiment *domain.SentimentResult) (*domain.GeneratedResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text, sentiment)},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat response has no choices")
	}

	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return nil, fmt.Errorf("chat response is empty")
	}

	return &domain.GeneratedResponse{
		ResponseText: answer,
		ModelUsed:    c.model,
		TokensUsed:   parsed.Usage.TotalTokens,
	}, nil
}

func buildPrompt(text string, sentiment *domain.SentimentResult) string {
	var context strings.Builder
	fmt.Fprintf(&context, "- Overall Sentiment: %s (confidence: %.2f)\n",
		sentiment.Sentiment, sentiment.ConfidenceScore)

	if len(sentiment.KeyPhrases) > 0 {
		phrases := sentiment.KeyPhrases
		if len(phrases) > 5 {
			phrases = phrases[:5]
		}
		fmt.Fprintf(&context, "- Key Topics: %s\n", strings.Join(phrases, ", "))
	}

	if len(sentiment.Opinions) > 0 {
		var aspects []string
		for i, opinion := range sentiment.Opinions {
			if i == 3 {
				break
			}
			var assessments []string
			for j, a := range opinion.Assessments {
				if j == 2 {
					break
				}
				assessments = append(assessments, a.Text)
			}
			aspects = append(aspects, fmt.Sprintf("%s: %s", opinion.Target.Text, strings.Join(assessments, ", ")))
		}
		fmt.Fprintf(&context, "- Specific Aspects: %s\n", strings.Join(aspects, "; "))
	}

	return fmt.Sprintf(`Generate a professional, empathetic customer service response to this feedback.

Customer Feedback: %q

Analysis Context:
%s
Response Requirements:
1. Be genuine and empathetic
2. Address the specific sentiment and key points mentioned
3. Use appropriate tone for the sentiment level
4. Keep response concise but meaningful (2-3 sentences)
5. If specific aspects were mentioned, acknowledge them
6. Provide appropriate next steps or appreciation

Generate only the response text, no additional formatting.`, text, context.String())
}

var cannedResponses = map[domain.Sentiment]string{
	domain.SentimentPositive: "Thank you so much for your wonderful feedback! We're thrilled to hear about your positive experience and truly appreciate you taking the time to share it with us.",
	domain.SentimentNegative: "We sincerely appreciate you bringing this to our attention and apologize for any inconvenience you've experienced. Your feedback is invaluable in helping us improve our service.",
	domain.SentimentMixed:    "Thank you for your detailed feedback. We appreciate both the positive aspects you've highlighted and the areas for improvement you've identified. This balanced perspective helps us understand how to better serve our customers.",
	domain.SentimentNeutral:  "Thank you for your feedback. We appreciate you taking the time to share your thoughts with us, and we'll use this information to continue improving our service.",
}

func fallbackResponse(sentiment *domain.SentimentResult) provider.ResponseOutcome {
	label := domain.SentimentNeutral
	if sentiment != nil {
		label = sentiment.Sentiment
	}

	text, ok := cannedResponses[label]
	if !ok {
		text = cannedResponses[domain.SentimentNeutral]
	}

	return provider.ResponseOutcome{
		Outcome: provider.Outcome{Success: true, ServiceUsed: provider.ServiceFallback},
		Data: &domain.GeneratedResponse{
			ResponseText: text,
			ModelUsed:    provider.ServiceFallback,
			TokensUsed:   0,
		},
	}
}
