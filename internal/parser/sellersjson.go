package parser

import (
	"encoding/json"
	"strconv"

	"github.com/sells-group/adscan/internal/model"
)

// ParseSellersJSON converts a decoded sellers.json document into entries.
// It returns an empty slice unless data is an object whose "sellers" value is
// an array. Array elements without a non-empty domain are skipped.
//
// A seller is passthrough only when is_passthrough is the JSON boolean true;
// "true", 1 and other truthy values count as direct.
func ParseSellersJSON(data any) []model.ResultEntry {
	results := []model.ResultEntry{}

	doc, ok := data.(map[string]any)
	if !ok {
		return results
	}
	sellers, ok := doc["sellers"].([]any)
	if !ok {
		return results
	}

	for _, raw := range sellers {
		seller, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		domain := scalarString(seller["domain"])
		if domain == "" {
			continue
		}

		entry := model.ResultEntry{
			Domain:       domain,
			Name:         scalarString(seller["name"]),
			SellerID:     scalarString(seller["seller_id"]),
			Type:         model.SellerTypeDirect,
			Relationship: model.RelationshipDirect,
			SourceURL:    string(model.FormatSellersJSON),
		}
		if passthrough, ok := seller["is_passthrough"].(bool); ok && passthrough {
			entry.Type = model.SellerTypePassthrough
			entry.Relationship = model.RelationshipReseller
		}
		results = append(results, entry)
	}
	return results
}

// scalarString renders a JSON scalar as text. Zero values, objects, arrays
// and null render as the empty string.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}
