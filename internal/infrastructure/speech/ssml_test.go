package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FeedbackAnalyzer/internal/domain"
)

func TestVoiceForSentiment(t *testing.T) {
	assert.Equal(t, "en-US-JennyNeural", voiceForSentiment(domain.SentimentPositive))
	assert.Equal(t, "en-US-AriaNeural", voiceForSentiment(domain.SentimentNegative))
	assert.Equal(t, "en-US-AriaNeural", voiceForSentiment(domain.SentimentNeutral))
	assert.Equal(t, "en-US-AriaNeural", voiceForSentiment(domain.SentimentMixed))
}

func TestEmotionStyle(t *testing.T) {
	tests := []struct {
		sentiment  domain.Sentiment
		confidence float64
		want       string
	}{
		{domain.SentimentPositive, 0.95, "excited"},
		{domain.SentimentPositive, 0.7, "cheerful"},
		{domain.SentimentPositive, 0.5, "friendly"},
		{domain.SentimentNegative, 0.9, "sad"},
		{domain.SentimentNegative, 0.65, "empathetic"},
		{domain.SentimentNegative, 0.4, "calm"},
		{domain.SentimentNeutral, 0.8, "narration-professional"},
		{domain.SentimentNeutral, 0.6, "assistant"},
		{domain.SentimentNeutral, 0.3, "chat"},
		{domain.SentimentMixed, 0.6, "assistant"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, emotionStyle(tt.sentiment, tt.confidence),
			"sentiment=%s confidence=%v", tt.sentiment, tt.confidence)
	}
}

func TestStyleDegree(t *testing.T) {
	assert.Equal(t, "1.3", styleDegree(0.95))
	assert.Equal(t, "1.2", styleDegree(0.8))
	assert.Equal(t, "1.1", styleDegree(0.6))
	assert.Equal(t, "1.0", styleDegree(0.4))
}

func TestBuildSSMLEscapesText(t *testing.T) {
	ssml := buildSSML(`Tom & Jerry say "hi" <now>`, domain.SentimentPositive, 0.95)

	assert.Contains(t, ssml, "Tom &amp; Jerry say &quot;hi&quot; &lt;now&gt;")
	assert.NotContains(t, ssml, "<now>")
	assert.Contains(t, ssml, `voice name="en-US-JennyNeural"`)
	assert.Contains(t, ssml, `style="excited"`)
	assert.Contains(t, ssml, `styledegree="1.3"`)
	assert.Contains(t, ssml, `<prosody rate="medium" pitch="medium">`)
}

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, 1.0, EstimateDuration(""))
	assert.Equal(t, 1.0, EstimateDuration("one two"))
	assert.InDelta(t, 2.0, EstimateDuration("one two three four five"), 0.001)
	assert.InDelta(t, 4.0, EstimateDuration("a b c d e f g h i j"), 0.001)
}
