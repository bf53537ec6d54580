package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStrategyVocabulary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want Strategy
	}{
		{"structured", StrategyStructured},
		{"greenhouse", StrategyStructured},
		{"greenhouse_standard", StrategyStructured},
		{"generic", StrategyGeneric},
		{"custom_site", StrategyGeneric},
		{"browser", StrategyBrowser},
		{"playwright", StrategyBrowser},
		{"  Playwright_Custom  ", StrategyBrowser},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}

	_, err := ParseStrategy("lever")
	require.Error(t, err)
	_, err = ParseStrategy("")
	require.Error(t, err)
}

func TestFirmKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "jane street", FirmKey("  Jane Street "))
	require.Equal(t, FirmKey("TWO SIGMA"), FirmKey("two sigma"))
}

func TestJobRecordKeyIgnoresLinkAndCase(t *testing.T) {
	t.Parallel()

	a := JobRecord{Firm: "X", Title: "Engineer", Location: "NY", Link: "https://a"}
	b := JobRecord{Firm: "x", Title: "ENGINEER", Location: "ny", Link: "https://b"}
	require.Equal(t, a.Key(), b.Key())

	c := JobRecord{Firm: "X", Title: "Engineer", Location: "London", Link: "https://a"}
	require.NotEqual(t, a.Key(), c.Key())
}

func TestSuccessOutcomeDegradesToEmpty(t *testing.T) {
	t.Parallel()

	require.Equal(t, OutcomeEmpty, SuccessOutcome(nil).Kind)
	require.Equal(t, OutcomeEmpty, SuccessOutcome([]JobRecord{}).Kind)
	require.Equal(t, OutcomeSuccess, SuccessOutcome([]JobRecord{{Firm: "X"}}).Kind)
}

func TestOutcomeFailed(t *testing.T) {
	t.Parallel()

	require.True(t, EmptyOutcome().Failed())
	require.True(t, ErrorOutcome(ErrKindNetwork, errors.New("boom")).Failed())
	require.False(t, SuccessOutcome([]JobRecord{{Firm: "X"}}).Failed())
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	link, ok := ResolveLink("https://example.com/careers/", "../jobs/1")
	require.True(t, ok)
	require.Equal(t, "https://example.com/jobs/1", link)

	link, ok = ResolveLink("https://example.com/careers", "https://other.example/jobs/2")
	require.True(t, ok)
	require.Equal(t, "https://other.example/jobs/2", link)

	_, ok = ResolveLink("https://example.com", "")
	require.False(t, ok)

	_, ok = ResolveLink("https://example.com", "javascript:void(0)")
	require.False(t, ok)

	_, ok = ResolveLink("https://example.com", "mailto:jobs@example.com")
	require.False(t, ok)
}

func TestValidScheme(t *testing.T) {
	t.Parallel()

	require.True(t, ValidScheme("http"))
	require.True(t, ValidScheme("https"))
	require.False(t, ValidScheme("ftp"))
	require.False(t, ValidScheme(""))
}
