package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyValueFields(t *testing.T) {
	tests := []struct {
		name  string
		input []interface{}
		want  []Field
	}{
		{
			name:  "pairs",
			input: []interface{}{"entry", 3, "now", "x"},
			want:  []Field{Any("entry", 3), Any("now", "x")},
		},
		{
			name:  "dangling key",
			input: []interface{}{"entry", 3, "orphan"},
			want:  []Field{Any("entry", 3), Any("extra", "orphan")},
		},
		{
			name:  "empty",
			input: nil,
			want:  []Field{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyValueFields(tt.input))
		})
	}
}
