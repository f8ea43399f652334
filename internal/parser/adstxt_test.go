package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/adscan/internal/model"
)

func TestParseAdsTxt_Basic(t *testing.T) {
	t.Parallel()

	input := "example.com, pub-123, DIRECT, f08c47\n# comment only\n\nshort, line"
	got := ParseAdsTxt(input)

	require.Len(t, got, 1)
	assert.Equal(t, model.ResultEntry{
		Domain:       "example.com",
		PublisherID:  "pub-123",
		Relationship: "DIRECT",
		Type:         "f08c47",
		SourceURL:    "ads.txt",
	}, got[0])
}

func TestParseAdsTxt_Empty(t *testing.T) {
	t.Parallel()

	got := ParseAdsTxt("")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseAdsTxt_Lines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []model.ResultEntry
	}{
		{
			name:  "relationship upper-cased",
			input: "google.com, pub-1, reseller",
			want: []model.ResultEntry{
				{Domain: "google.com", PublisherID: "pub-1", Relationship: "RESELLER", SourceURL: "ads.txt"},
			},
		},
		{
			name:  "inline comment stripped",
			input: "google.com, pub-1, DIRECT # primary account",
			want: []model.ResultEntry{
				{Domain: "google.com", PublisherID: "pub-1", Relationship: "DIRECT", SourceURL: "ads.txt"},
			},
		},
		{
			name:  "comment truncates before third field",
			input: "google.com, pub-1 # , DIRECT",
			want:  []model.ResultEntry{},
		},
		{
			name:  "crlf line endings",
			input: "a.com, 1, DIRECT, tag\r\nb.com, 2, RESELLER\r\n",
			want: []model.ResultEntry{
				{Domain: "a.com", PublisherID: "1", Relationship: "DIRECT", Type: "tag", SourceURL: "ads.txt"},
				{Domain: "b.com", PublisherID: "2", Relationship: "RESELLER", SourceURL: "ads.txt"},
			},
		},
		{
			name:  "fields beyond the fourth ignored",
			input: "a.com, 1, DIRECT, tag, extra, more",
			want: []model.ResultEntry{
				{Domain: "a.com", PublisherID: "1", Relationship: "DIRECT", Type: "tag", SourceURL: "ads.txt"},
			},
		},
		{
			name:  "empty domain dropped",
			input: ",,\n , pub-1, DIRECT",
			want:  []model.ResultEntry{},
		},
		{
			name:  "variable declarations dropped",
			input: "contact=ads@example.com\nsubdomain=news.example.com",
			want:  []model.ResultEntry{},
		},
		{
			name:  "order preserved",
			input: "z.com,1,DIRECT\na.com,2,DIRECT\nm.com,3,DIRECT",
			want: []model.ResultEntry{
				{Domain: "z.com", PublisherID: "1", Relationship: "DIRECT", SourceURL: "ads.txt"},
				{Domain: "a.com", PublisherID: "2", Relationship: "DIRECT", SourceURL: "ads.txt"},
				{Domain: "m.com", PublisherID: "3", Relationship: "DIRECT", SourceURL: "ads.txt"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseAdsTxt(tt.input))
		})
	}
}

func TestParseAdsTxt_Total(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"\x00\x01\x02,\xff\xfe,\x80",
		"日本.jp, パブ, direct",
		strings.Repeat(",", 1000),
		strings.Repeat("#", 50),
		"\n\n\n\r\r\r",
		"a,b",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { ParseAdsTxt(in) })
	}

	got := ParseAdsTxt("日本.jp, パブ, direct")
	require.Len(t, got, 1)
	assert.Equal(t, "DIRECT", got[0].Relationship)
}

func TestParseAdsTxt_Idempotent(t *testing.T) {
	t.Parallel()

	input := "a.com, 1, DIRECT\n# x\nb.com, 2, RESELLER, c1d2"
	assert.Equal(t, ParseAdsTxt(input), ParseAdsTxt(input))
}
