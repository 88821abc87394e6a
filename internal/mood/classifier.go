// Package mood maps free text to a coarse emotional-state tag using
// lexical phrase matching. It is deterministic and makes no external calls.
package mood

import (
	"strings"

	"github.com/jmallory/solace/internal/domain"
)

// phraseSet ties a tag to the phrases that indicate it. Sets are checked in
// order and the first tag with any matching phrase wins.
type phraseSet struct {
	state   domain.EmotionalState
	phrases []string
}

// Priority order is fixed: anxious before depressed before stressed before
// calm. A message mentioning both anxiety and stress reads as anxious.
var phraseSets = []phraseSet{
	{
		state: domain.StateAnxious,
		phrases: []string{
			"anxious", "anxiety", "panic", "worried", "worrying",
			"nervous", "on edge", "afraid", "scared", "dread",
		},
	},
	{
		state: domain.StateDepressed,
		phrases: []string{
			"depressed", "depression", "hopeless", "worthless",
			"empty inside", "no point", "miserable", "feel so sad",
			"feeling sad", "feel down", "feeling down",
		},
	},
	{
		state: domain.StateStressed,
		phrases: []string{
			"stressed", "stress", "overwhelmed", "under pressure",
			"burned out", "burnt out", "too much to do", "can't cope",
			"can't sleep", "cannot sleep",
		},
	},
	{
		state: domain.StateCalm,
		phrases: []string{
			"calm", "relaxed", "peaceful", "at ease", "feeling better",
			"feel better", "grateful", "content",
		},
	},
}

// Classifier assigns an emotional-state tag to a message.
type Classifier struct{}

// New creates a classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the tag for the given text. Blank input is unknown;
// text matching no phrase set is neutral.
func (c *Classifier) Classify(text string) domain.EmotionalState {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.StateUnknown
	}

	lower := strings.ToLower(trimmed)
	for _, set := range phraseSets {
		for _, phrase := range set.phrases {
			if strings.Contains(lower, phrase) {
				return set.state
			}
		}
	}
	return domain.StateNeutral
}
