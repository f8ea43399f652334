package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/adscan/internal/model"
)

func adsEntries() []model.ResultEntry {
	return []model.ResultEntry{
		{Domain: "google.com", PublisherID: "pub-2", Relationship: "DIRECT", Type: "f08c47", SourceURL: "ads.txt"},
		{Domain: "appnexus.com", PublisherID: "pub-10", Relationship: "RESELLER", SourceURL: "ads.txt"},
		{Domain: "Criteo.com", PublisherID: "pub-1", Relationship: "DIRECT", SourceURL: "ads.txt"},
	}
}

func sellerEntries() []model.ResultEntry {
	return []model.ResultEntry{
		{Domain: "b.com", Name: "Beta Media", SellerID: "2", Type: "Direct", Relationship: "DIRECT", SourceURL: "sellers.json"},
		{Domain: "a.com", Name: "Écho Ads", SellerID: "1", Type: "Passthrough", Relationship: "RESELLER", SourceURL: "sellers.json"},
		{Domain: "c.com", SellerID: "3", Type: "Direct", Relationship: "DIRECT", SourceURL: "sellers.json"},
	}
}

func domains(entries []model.ResultEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Domain
	}
	return out
}

func TestFilter(t *testing.T) {
	t.Parallel()

	entries := adsEntries()

	assert.Equal(t, []string{"google.com", "appnexus.com", "Criteo.com"}, domains(Filter(entries, "")))
	assert.Equal(t, []string{"Criteo.com"}, domains(Filter(entries, "CRITEO")))
	assert.Equal(t, []string{"appnexus.com"}, domains(Filter(entries, "pub-10")))
	assert.Empty(t, Filter(entries, "nomatch"))

	assert.Equal(t, []string{"a.com"}, domains(Filter(sellerEntries(), "écho")))
}

func TestSort(t *testing.T) {
	t.Parallel()

	entries := adsEntries()

	asc := Sort(entries, SortDomain, false)
	assert.Equal(t, []string{"appnexus.com", "Criteo.com", "google.com"}, domains(asc))

	desc := Sort(entries, SortDomain, true)
	assert.Equal(t, []string{"google.com", "Criteo.com", "appnexus.com"}, domains(desc))

	// Input order is untouched.
	assert.Equal(t, []string{"google.com", "appnexus.com", "Criteo.com"}, domains(entries))
}

func TestSort_MissingValuesFirst(t *testing.T) {
	t.Parallel()

	got := Sort(sellerEntries(), SortName, false)
	assert.Equal(t, []string{"c.com", "b.com", "a.com"}, domains(got))
}

func TestSort_Stable(t *testing.T) {
	t.Parallel()

	got := Sort(adsEntries(), SortType, false)
	// Two entries share an empty type and keep their relative order.
	assert.Equal(t, []string{"appnexus.com", "Criteo.com", "google.com"}, domains(got))
}

func TestSort_Empty(t *testing.T) {
	t.Parallel()

	got := Sort(nil, SortDomain, false)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseSortField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SortDomain, ParseSortField(""))
	assert.Equal(t, SortDomain, ParseSortField("bogus"))
	assert.Equal(t, SortName, ParseSortField("Name"))
	assert.Equal(t, SortType, ParseSortField("type"))
	assert.Equal(t, SortPublisherID, ParseSortField("publisherId"))
	assert.Equal(t, SortPublisherID, ParseSortField("publisher_id"))
}

func TestColumns(t *testing.T) {
	t.Parallel()

	headers := func(cols []Column) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = c.Header
		}
		return out
	}

	assert.Equal(t, []string{"Domain", "Publisher ID", "Type", "Relationship"}, headers(Columns(adsEntries())))
	assert.Equal(t, []string{"Domain", "Company Name", "Type", "Relationship"}, headers(Columns(sellerEntries())))
	assert.Equal(t, []string{"Domain", "Publisher ID", "Type", "Relationship"}, headers(Columns(nil)))

	cols := Columns(sellerEntries())
	require.Len(t, cols, 4)
	assert.Equal(t, "-", cols[1].Value(sellerEntries()[2]))

	assert.Equal(t, "Sellers.json Results", Title(sellerEntries()))
	assert.Equal(t, "Ads.txt Results", Title(adsEntries()))
}
