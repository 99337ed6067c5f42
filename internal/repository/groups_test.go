package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(v string) *string { return &v }

// GroupClosed gates both intake admits and waitlist promotion, so the note
// matching has to hold for the forms staff actually type.
func TestGroupClosed(t *testing.T) {
	cases := []struct {
		name  string
		notes *string
		want  bool
	}{
		{"no notes", nil, false},
		{"ordinary note", strp("sala nr 2, wejście od podwórza"), false},
		{"english closed", strp("CLOSED until September"), true},
		{"polish closed", strp("grupa zamknięta"), true},
		{"polish closed inflected", strp("zamknięte do odwołania"), true},
		{"closed mid-sentence", strp("uwaga: closed — wraca we wrześniu"), true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, GroupClosed(tc.notes), tc.name)
	}
}
