package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"Acme  Corp!", "acme-corp"},
		{"  Trimmed  ", "trimmed"},
		{"Dash - Heavy -- Name", "dash-heavy-name"},
		{"ÜmlautCafé", "mlautcaf"},
		{"123 Go", "123-go"},
		{"!!!", ""},
		{"already-a-slug", "already-a-slug"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Derive(tc.name), "input %q", tc.name)
	}
}

func TestDeriveShape(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	inputs := []string{
		"Acme Corp", "  Many   Spaces  ", "UPPER lower 42", "trail-", "-lead",
		"Symbols & Co.", "tabs\tand\nnewlines",
	}
	for _, input := range inputs {
		got := Derive(input)
		if got == "" {
			continue
		}
		require.True(t, valid.MatchString(got), "input %q produced %q", input, got)
	}
}

func TestDeriveCollision(t *testing.T) {
	// Names that normalize identically must produce identical slugs so the
	// unique index rejects the second organization.
	require.Equal(t, Derive("Acme Corp"), Derive("Acme  Corp!"))
}
