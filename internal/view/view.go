// Package view filters, sorts and renders scan results for display and
// export. Every function works on copies; the input slice is never reordered.
package view

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/adscan/internal/model"
)

// SortField names a sortable column.
type SortField string

const (
	SortDomain      SortField = "domain"
	SortName        SortField = "name"
	SortType        SortField = "type"
	SortPublisherID SortField = "publisherId"
)

// ParseSortField maps user input to a SortField. Unknown names sort by domain.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortName
	case "type":
		return SortType
	case "publisherid", "publisher_id", "publisher-id":
		return SortPublisherID
	default:
		return SortDomain
	}
}

// Filter keeps entries whose domain, name or publisher ID contains term,
// ignoring case. An empty term keeps everything.
func Filter(entries []model.ResultEntry, term string) []model.ResultEntry {
	out := make([]model.ResultEntry, 0, len(entries))
	folder := cases.Fold()
	needle := folder.String(term)
	for _, e := range entries {
		if needle == "" ||
			strings.Contains(folder.String(e.Domain), needle) ||
			strings.Contains(folder.String(e.Name), needle) ||
			strings.Contains(folder.String(e.PublisherID), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Sort returns a stably sorted copy of entries ordered by field using
// English collation. Missing values sort as the empty string.
func Sort(entries []model.ResultEntry, field SortField, desc bool) []model.ResultEntry {
	out := slices.Clone(entries)
	if out == nil {
		out = []model.ResultEntry{}
	}
	col := collate.New(language.English)
	slices.SortStableFunc(out, func(a, b model.ResultEntry) int {
		c := col.CompareString(sortValue(a, field), sortValue(b, field))
		if desc {
			return -c
		}
		return c
	})
	return out
}

func sortValue(e model.ResultEntry, field SortField) string {
	switch field {
	case SortName:
		return e.Name
	case SortType:
		return e.Type
	case SortPublisherID:
		return e.PublisherID
	default:
		return e.Domain
	}
}

// Column is one rendered table column.
type Column struct {
	Header string
	Value  func(model.ResultEntry) string
}

// Title returns the heading for a result set.
func Title(entries []model.ResultEntry) string {
	if isSellersJSON(entries) {
		return "Sellers.json Results"
	}
	return "Ads.txt Results"
}

// Columns returns the display columns for a result set, chosen from the
// source of the first entry.
func Columns(entries []model.ResultEntry) []Column {
	cols := []Column{{Header: "Domain", Value: func(e model.ResultEntry) string { return e.Domain }}}
	if isSellersJSON(entries) {
		cols = append(cols, Column{Header: "Company Name", Value: func(e model.ResultEntry) string { return dash(e.Name) }})
	} else {
		cols = append(cols, Column{Header: "Publisher ID", Value: func(e model.ResultEntry) string { return dash(e.PublisherID) }})
	}
	return append(cols,
		Column{Header: "Type", Value: func(e model.ResultEntry) string { return dash(e.Type) }},
		Column{Header: "Relationship", Value: func(e model.ResultEntry) string { return dash(e.Relationship) }},
	)
}

func isSellersJSON(entries []model.ResultEntry) bool {
	return len(entries) > 0 && entries[0].Source() == model.FormatSellersJSON
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
