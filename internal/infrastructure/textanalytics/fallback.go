package textanalytics

import (
	"strings"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/provider"
)

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "love", "perfect", "wonderful"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "horrible", "worst", "disappointing"}
)

// fallbackSentiment is the deterministic keyword heuristic used when the
// remote backend is unavailable or keeps erroring. Ties, including zero
// hits on either list, resolve to neutral.
func fallbackSentiment(text string) provider.SentimentOutcome {
	lower := strings.ToLower(text)

	var positives, negatives int
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positives++
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negatives++
		}
	}

	sentiment := domain.SentimentNeutral
	confidence := 0.6
	switch {
	case positives > negatives:
		sentiment = domain.SentimentPositive
		confidence = 0.8
	case negatives > positives:
		sentiment = domain.SentimentNegative
		confidence = 0.8
	}

	scores := domain.ConfidenceScores{Positive: 0.3, Neutral: 0.3, Negative: 0.3}
	switch sentiment {
	case domain.SentimentPositive:
		scores.Positive = confidence
	case domain.SentimentNegative:
		scores.Negative = confidence
	default:
		scores.Neutral = confidence
	}

	return provider.SentimentOutcome{
		Outcome: provider.Outcome{Success: true, ServiceUsed: provider.ServiceFallback},
		Data: &domain.SentimentResult{
			Sentiment:       sentiment,
			ConfidenceScore: confidence,
			Scores:          scores,
			KeyPhrases:      []string{},
			Sentences: []domain.SentenceSentiment{
				{Text: text, Sentiment: sentiment, ConfidenceScore: confidence},
			},
		},
	}
}
