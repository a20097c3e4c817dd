package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRecipients(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "empty means anyone with link",
			in:   nil,
			want: []string{},
		},
		{
			name: "trims and lowercases",
			in:   []string{"  Alice@Example.COM ", "bob@example.com"},
			want: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name: "drops blanks and duplicates",
			in:   []string{"a@b.c", "", "  ", "A@B.C", "d@e.f"},
			want: []string{"a@b.c", "d@e.f"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalizeRecipients(tt.in))
		})
	}
}
