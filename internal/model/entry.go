package model

import "sort"

// Format identifies which transparency file a record was parsed from.
type Format string

const (
	FormatAdsTxt      Format = "ads.txt"
	FormatSellersJSON Format = "sellers.json"
)

// Declared relationships between a seller and an advertising system.
const (
	RelationshipDirect   = "DIRECT"
	RelationshipReseller = "RESELLER"
)

// Seller types reported for sellers.json records.
const (
	SellerTypeDirect      = "Direct"
	SellerTypePassthrough = "Passthrough"
)

// ResultEntry is one normalized record from an ads.txt or sellers.json file.
// Which optional fields are present depends on SourceURL; Extra carries any
// additional free-form fields a caller attaches.
type ResultEntry struct {
	Domain       string
	Relationship string
	Type         string
	PublisherID  string
	SellerID     string
	Name         string
	SourceURL    string
	Extra        map[string]string
}

// Field is a single named value of a ResultEntry.
type Field struct {
	Key   string
	Value string
}

// Source returns the format the entry was parsed from.
func (e ResultEntry) Source() Format {
	return Format(e.SourceURL)
}

// Fields returns the fields present on the entry in canonical order. Extension
// fields follow the known ones, sorted by key.
func (e ResultEntry) Fields() []Field {
	var fields []Field
	switch e.Source() {
	case FormatAdsTxt:
		fields = []Field{
			{Key: "domain", Value: e.Domain},
			{Key: "publisherId", Value: e.PublisherID},
			{Key: "relationship", Value: e.Relationship},
			{Key: "type", Value: e.Type},
			{Key: "sourceUrl", Value: e.SourceURL},
		}
	case FormatSellersJSON:
		fields = []Field{
			{Key: "domain", Value: e.Domain},
			{Key: "name", Value: e.Name},
			{Key: "sellerId", Value: e.SellerID},
			{Key: "type", Value: e.Type},
			{Key: "relationship", Value: e.Relationship},
			{Key: "sourceUrl", Value: e.SourceURL},
		}
	default:
		fields = []Field{{Key: "domain", Value: e.Domain}}
		for _, f := range []Field{
			{Key: "name", Value: e.Name},
			{Key: "publisherId", Value: e.PublisherID},
			{Key: "sellerId", Value: e.SellerID},
			{Key: "relationship", Value: e.Relationship},
			{Key: "type", Value: e.Type},
			{Key: "sourceUrl", Value: e.SourceURL},
		} {
			if f.Value != "" {
				fields = append(fields, f)
			}
		}
	}

	if len(e.Extra) == 0 {
		return fields
	}
	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: e.Extra[k]})
	}
	return fields
}

// Get returns the value of the named field and whether it is present.
func (e ResultEntry) Get(key string) (string, bool) {
	for _, f := range e.Fields() {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// WithExtra returns a copy of the entry with an extension field set. The
// receiver is left untouched.
func (e ResultEntry) WithExtra(key, value string) ResultEntry {
	extra := make(map[string]string, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra[key] = value
	e.Extra = extra
	return e
}
