package speech

import (
	"fmt"
	"strings"

	"FeedbackAnalyzer/internal/domain"
)

// voiceForSentiment picks the narration voice.
func voiceForSentiment(sentiment domain.Sentiment) string {
	if sentiment == domain.SentimentPositive {
		return "en-US-JennyNeural"
	}
	return "en-US-AriaNeural"
}

// emotionStyle maps sentiment plus confidence to an express-as style the
// selected voice supports.
func emotionStyle(sentiment domain.Sentiment, confidence float64) string {
	switch sentiment {
	case domain.SentimentPositive:
		switch {
		case confidence > 0.8:
			return "excited"
		case confidence > 0.6:
			return "cheerful"
		default:
			return "friendly"
		}
	case domain.SentimentNegative:
		switch {
		case confidence > 0.8:
			return "sad"
		case confidence > 0.6:
			return "empathetic"
		default:
			return "calm"
		}
	default:
		switch {
		case confidence > 0.7:
			return "narration-professional"
		case confidence > 0.5:
			return "assistant"
		default:
			return "chat"
		}
	}
}

// styleDegree scales emotional intensity with confidence.
func styleDegree(confidence float64) string {
	switch {
	case confidence > 0.9:
		return "1.3"
	case confidence > 0.7:
		return "1.2"
	case confidence > 0.5:
		return "1.1"
	default:
		return "1.0"
	}
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// buildSSML renders the emotion-adapted synthesis request.
func buildSSML(text string, sentiment domain.Sentiment, confidence float64) string {
	return fmt.Sprintf(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xmlns:mstts="https://www.w3.org/2001/mstts" xml:lang="en-US">
  <voice name=%q>
    <mstts:express-as style=%q styledegree=%q>
      <prosody rate="medium" pitch="medium">%s</prosody>
    </mstts:express-as>
  </voice>
</speak>`,
		voiceForSentiment(sentiment),
		emotionStyle(sentiment, confidence),
		styleDegree(confidence),
		ssmlEscaper.Replace(text))
}

// EstimateDuration approximates narration length at ~150 words per minute.
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	duration := float64(words) / 2.5
	if duration < 1.0 {
		return 1.0
	}
	return duration
}
