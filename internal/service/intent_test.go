package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentClassifierIsDone(t *testing.T) {
	ic := NewIntentClassifier()

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{name: "bare done", query: "done", want: true},
		{name: "done with punctuation", query: "Done!", want: true},
		{name: "thats it contained", query: "ok that's it for today", want: true},
		{name: "all set contained", query: "I think we're all set", want: true},
		{name: "nothing else", query: "nothing else needed", want: true},
		{name: "single word not swallowed", query: "the pump is done for", want: false},
		{name: "product query", query: "pump shaft seal", want: false},
		{name: "empty", query: "", want: false},
		{name: "whitespace", query: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ic.IsDone(tt.query))
		})
	}
}

func TestIntentClassifierExtraPhrases(t *testing.T) {
	ic := NewIntentClassifier("wrap it up", "terminado")

	assert.True(t, ic.IsDone("let's wrap it up"))
	assert.True(t, ic.IsDone("terminado"))
	assert.False(t, ic.IsDone("wrap the fitting"))
}
