package sanitizer_test

import (
	"testing"

	"github.com/rohmanhakim/newsletter-triage/internal/sanitizer"
	"github.com/stretchr/testify/assert"
)

func TestIgnoreRules_Matches(t *testing.T) {
	rules := sanitizer.DefaultIgnoreRules()

	tests := []struct {
		text string
		want bool
	}{
		{text: "Unsubscribe", want: true},
		{text: " UNSUBSCRIBE ", want: true},
		{text: "manage\n your  subscription", want: true},
		{text: "Our friends at Acme (Sponsor)", want: true},
		{text: "Click to unsubscribe", want: false},
		{text: "Advertise with us", want: false},
		{text: "", want: false},
		{text: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Matches(tt.text))
		})
	}
}

func TestIgnoreRules_ZeroValueMatchesNothing(t *testing.T) {
	var rules sanitizer.IgnoreRules
	assert.False(t, rules.Matches("unsubscribe"))
}

func TestIgnoreRules_WithDoesNotMutateReceiver(t *testing.T) {
	base := sanitizer.DefaultIgnoreRules()
	extended := base.With([]string{"Forward to a friend"}, nil)

	assert.True(t, extended.Matches("forward to a friend"))
	assert.False(t, base.Matches("forward to a friend"))
	assert.True(t, extended.Matches("unsubscribe"))
}

func TestNewIgnoreRules_NormalizesAndDropsBlankPhrases(t *testing.T) {
	rules := sanitizer.NewIgnoreRules([]string{"  Read   ONLINE ", ""}, []string{" ", "(PROMO)"})

	assert.True(t, rules.Matches("read online"))
	assert.True(t, rules.Matches("big sale (promo) now"))
	assert.False(t, rules.Matches("anything else"))
}
