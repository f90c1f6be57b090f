package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanModelJSON(t *testing.T) {
	want := `[{"transactionId":"a","categoryId":"b","confidence":"high"}]`

	for name, raw := range map[string]string{
		"bare":        want,
		"fenced":      "```json\n" + want + "\n```",
		"plain fence": "```\n" + want + "\n```",
		"surrounded":  "Here you go:\n" + want + "\nHope that helps!",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, cleanModelJSON(raw))
		})
	}
}

func TestParseConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, parseConfidence("high"))
	assert.Equal(t, ConfidenceHigh, parseConfidence("HIGH"))
	assert.Equal(t, ConfidenceMedium, parseConfidence("medium"))
	assert.Equal(t, ConfidenceLow, parseConfidence("low"))
	// Anything unexpected degrades to low rather than failing.
	assert.Equal(t, ConfidenceLow, parseConfidence("certain"))
}
