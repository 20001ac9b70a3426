package findings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	for _, sev := range Severities {
		got, err := ParseSeverity(string(sev))
		require.NoError(t, err)
		require.Equal(t, sev, got)
	}

	got, err := ParseSeverity("  HIGH ")
	require.NoError(t, err)
	require.Equal(t, SeverityHigh, got)

	_, err = ParseSeverity("urgent")
	require.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	for _, cat := range Categories {
		got, err := ParseCategory(string(cat))
		require.NoError(t, err)
		require.Equal(t, cat, got)
	}

	_, err := ParseCategory("misc")
	require.Error(t, err)
}

func TestSeverityRankOrdering(t *testing.T) {
	// Rank 0 is the most severe; Severities is ordered most to least severe.
	for i := 1; i < len(Severities); i++ {
		require.Less(t, Severities[i-1].Rank(), Severities[i].Rank())
	}
	require.Greater(t, Severity("bogus").Rank(), SeverityInfo.Rank())
}

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"  Hardcoded   Secret  ": "hardcoded secret",
		"Hardcoded secret.":      "hardcoded secret",
		"HARDCODED SECRET!?":     "hardcoded secret",
		"tab\tseparated\ttitle":  "tab separated title",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeTitle(in), "input %q", in)
	}
}
