package service

import "strings"

// defaultDonePhrases are the utterances treated as "I'm finished adding
// items". Single words must match the whole query; multi-word phrases may
// appear anywhere inside it.
var defaultDonePhrases = []string{
	"done",
	"that's it",
	"thats it",
	"that's all",
	"thats all",
	"all set",
	"finish",
	"finished",
	"no thanks",
	"nothing else",
	"complete the estimate",
	"i'm done",
	"im done",
}

// IntentClassifier decides whether a voice query means the technician is
// done with the current estimate rather than asking for another product.
type IntentClassifier struct {
	phrases []string
}

// NewIntentClassifier returns a classifier using the default phrase set.
// Pass extra phrases to extend it, for example from configuration.
func NewIntentClassifier(extra ...string) *IntentClassifier {
	phrases := make([]string, 0, len(defaultDonePhrases)+len(extra))
	phrases = append(phrases, defaultDonePhrases...)
	for _, p := range extra {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return &IntentClassifier{phrases: phrases}
}

// IsDone reports whether the query signals completion. Matching is
// case-insensitive. A single-word phrase only fires on an exact match so that
// "done" does not swallow "pump is done for", while multi-word phrases fire
// on containment ("ok that's all for today").
func (ic *IntentClassifier) IsDone(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	q = strings.TrimRight(q, ".!?")

	for _, phrase := range ic.phrases {
		if strings.ContainsRune(phrase, ' ') {
			if strings.Contains(q, phrase) {
				return true
			}
		} else if q == phrase {
			return true
		}
	}
	return false
}
