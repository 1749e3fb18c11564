package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected ParsedName
	}{
		{
			name:     "Mixed case with TLD",
			raw:      "TechStartup.COM",
			expected: ParsedName{Name: "techstartup.com", SLD: "techstartup", TLD: ".com"},
		},
		{
			name:     "Single label",
			raw:      "foo",
			expected: ParsedName{Name: "foo", SLD: "foo", TLD: ""},
		},
		{
			name:     "Only the immediate second-level label is kept",
			raw:      "a.b.c.com",
			expected: ParsedName{Name: "a.b.c.com", SLD: "c", TLD: ".com"},
		},
		{
			name:     "Surrounding whitespace is trimmed",
			raw:      "  CloudHosting.net \n",
			expected: ParsedName{Name: "cloudhosting.net", SLD: "cloudhosting", TLD: ".net"},
		},
		{
			name:     "Empty string",
			raw:      "",
			expected: ParsedName{},
		},
		{
			name:     "Trailing dot gives an empty TLD label",
			raw:      "example.",
			expected: ParsedName{Name: "example.", SLD: "example", TLD: "."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseName(tt.raw))
		})
	}
}

func TestParseName_FixedPoint(t *testing.T) {
	inputs := []string{
		"TechStartup.COM",
		"foo",
		"a.b.c.com",
		"  spaced.io  ",
		"",
		"...",
		"UPPER.Case.Org",
		"ünïcode.DE",
	}

	for _, raw := range inputs {
		first := ParseName(raw)
		assert.Equal(t, first, ParseName(first.Name), "input %q", raw)
	}
}

func TestParseName_NameMatchesParts(t *testing.T) {
	for _, raw := range []string{"webdesign.com", "blockchain.tech", "localhost"} {
		parsed := ParseName(raw)
		assert.Equal(t, parsed.Name, parsed.SLD+parsed.TLD, "input %q", raw)
	}
}

func TestNormalizeTLD(t *testing.T) {
	tests := map[string]string{
		".com":  ".com",
		"COM":   ".com",
		" io ":  ".io",
		"":      "",
		".Tech": ".tech",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeTLD(in), "input %q", in)
	}
}
