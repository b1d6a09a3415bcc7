package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"personcam/internal/models"
)

func TestSummarize_Empty(t *testing.T) {
	count, confidence := Summarize(nil)
	assert.Zero(t, count)
	assert.Equal(t, 0.0, confidence, "confidence is 0.0 when no persons are found")
}

func TestSummarize_MaxConfidence(t *testing.T) {
	persons := []models.DetectedObject{
		{Label: "person", Confidence: 0.61},
		{Label: "person", Confidence: 0.87},
		{Label: "person", Confidence: 0.55},
	}

	count, confidence := Summarize(persons)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0.87, confidence)
}
