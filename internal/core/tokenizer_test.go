package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		opts TokenizerOptions
		want []string
	}{
		{
			name: "auto splits whitespace runs",
			line: "1  2\t3",
			opts: TokenizerOptions{Delimiter: "auto", SkipEmptyTokens: true},
			want: []string{"1", "2", "3"},
		},
		{
			name: "auto is case insensitive",
			line: "a b",
			opts: TokenizerOptions{Delimiter: "AUTO", SkipEmptyTokens: true},
			want: []string{"a", "b"},
		},
		{
			name: "auto keeps leading empty token without skip",
			line: " 1 2",
			opts: TokenizerOptions{Delimiter: "auto"},
			want: []string{"", "1", "2"},
		},
		{
			name: "simplify trims before split",
			line: "  1   2  ",
			opts: TokenizerOptions{Delimiter: "auto", SimplifyWhitespace: true},
			want: []string{"1", "2"},
		},
		{
			name: "comma keeps empty fields",
			line: "1,,3",
			opts: TokenizerOptions{Delimiter: ","},
			want: []string{"1", "", "3"},
		},
		{
			name: "comma drops empty fields",
			line: "1,,3",
			opts: TokenizerOptions{Delimiter: ",", SkipEmptyTokens: true},
			want: []string{"1", "3"},
		},
		{
			name: "TAB alias",
			line: "1\t2",
			opts: TokenizerOptions{Delimiter: "TAB"},
			want: []string{"1", "2"},
		},
		{
			name: "lowercase tab alias",
			line: "1\t2",
			opts: TokenizerOptions{Delimiter: "tab"},
			want: []string{"1", "2"},
		},
		{
			name: "compound SPACE alias",
			line: "1, 2, 3",
			opts: TokenizerOptions{Delimiter: ",SPACE"},
			want: []string{"1", "2", "3"},
		},
		{
			name: "empty delimiter behaves as auto",
			line: "4 5",
			opts: TokenizerOptions{SkipEmptyTokens: true},
			want: []string{"4", "5"},
		},
		{
			name: "empty line with skip yields nothing",
			line: "",
			opts: TokenizerOptions{Delimiter: ";", SkipEmptyTokens: true},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.line, tt.opts)
			if len(tt.want) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSimplifyWhitespace(t *testing.T) {
	require.Equal(t, "a b c", SimplifyWhitespace("  a \t b\n\nc "))
	require.Equal(t, "", SimplifyWhitespace(" \t "))
}

func TestResolveDelimiter(t *testing.T) {
	require.Equal(t, ";\t", ResolveDelimiter(";TAB"))
	require.Equal(t, ": ", ResolveDelimiter(":space"))
	require.Equal(t, ",", ResolveDelimiter(","))
}
