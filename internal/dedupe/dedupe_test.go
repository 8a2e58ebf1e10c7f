package dedupe_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"VaultXIngest/internal/dedupe"
)

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name  string
		title string
		max   int
		want  string
	}{
		{name: "example", title: "OpenAI Releases GPT-4 Turbo!!", max: 50, want: "openai-releases-gpt-4-turbo"},
		{name: "leading junk", title: "  --Hello, World--  ", max: 50, want: "hello-world"},
		{name: "non ascii", title: "Café über AI", max: 50, want: "caf-ber-ai"},
		{name: "empty", title: "!!!", max: 50, want: ""},
		{name: "cap trims dash", title: "abcd efgh", max: 5, want: "abcd"},
		{name: "unbounded", title: "A very long tool name that keeps going and going past fifty chars", max: 0,
			want: "a-very-long-tool-name-that-keeps-going-and-going-past-fifty-chars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, dedupe.GenerateID(tt.title, tt.max))
		})
	}
}

func TestGenerateIDInvariants(t *testing.T) {
	titles := []string{
		"OpenAI Releases GPT-4 Turbo!!",
		"  multiple   spaces\tand\nnewlines ",
		"Ünïcödé—dashes–and“quotes”",
		"x",
		"----",
		"The quick brown fox jumps over the lazy dog and keeps on running far away",
		"100% of 2024's AI: Rise & Fall?",
	}
	for _, title := range titles {
		for _, max := range []int{0, 5, 50} {
			a := dedupe.GenerateID(title, max)
			b := dedupe.GenerateID(title, max)
			require.Equal(t, a, b)
			if max > 0 {
				require.LessOrEqual(t, len(a), max)
			}
			if a != "" {
				require.Regexp(t, slugShape, a, "title %q", title)
			}
		}
	}
}

type record struct {
	id     string
	source string
}

func recordKey(r record) string { return r.id }

func TestApplyKeepsFirstSeen(t *testing.T) {
	items := []record{
		{id: "ai-breakthrough", source: "newsapi"},
		{id: "other", source: "newsapi"},
		{id: "ai-breakthrough", source: "reddit"},
	}

	res := dedupe.Apply(items, recordKey, dedupe.KeepFirst, 50)
	require.Len(t, res.Items, 2)
	require.Equal(t, "newsapi", res.Items[0].source)
	require.Equal(t, 1, res.Duplicates)
	require.Zero(t, res.Truncated)
}

func TestApplyKeepLastReplacesInPlace(t *testing.T) {
	items := []record{
		{id: "a", source: "first"},
		{id: "b", source: "first"},
		{id: "a", source: "second"},
	}

	res := dedupe.Apply(items, recordKey, dedupe.KeepLast, 0)
	require.Equal(t, []record{{id: "a", source: "second"}, {id: "b", source: "first"}}, res.Items)
	require.Equal(t, 1, res.Duplicates)
}

func TestApplyTruncatesToMax(t *testing.T) {
	items := make([]record, 0, 80)
	for i := range 80 {
		items = append(items, record{id: fmt.Sprintf("item-%d", i)})
	}

	res := dedupe.Apply(items, recordKey, dedupe.KeepFirst, 50)
	require.Len(t, res.Items, 50)
	require.Equal(t, 30, res.Truncated)
	require.Equal(t, "item-0", res.Items[0].id)
	require.Equal(t, "item-49", res.Items[49].id)
}

func TestParsePolicy(t *testing.T) {
	p, err := dedupe.ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, dedupe.KeepFirst, p)

	p, err = dedupe.ParsePolicy("LAST")
	require.NoError(t, err)
	require.Equal(t, dedupe.KeepLast, p)

	_, err = dedupe.ParsePolicy("random")
	require.Error(t, err)
}
