// Package parser converts fetched ads.txt and sellers.json content into
// normalized result entries. Parsing is lenient: malformed lines or elements
// are dropped rather than reported.
package parser

import (
	"strings"

	"github.com/sells-group/adscan/internal/model"
)

// ParseAdsTxt parses ads.txt content line by line. A line yields an entry
// only when it has at least three comma-separated fields after comments and
// surrounding whitespace are removed and the domain field is non-empty.
// Entries keep source line order.
func ParseAdsTxt(content string) []model.ResultEntry {
	if content == "" {
		return []model.ResultEntry{}
	}

	results := []model.ResultEntry{}
	for _, line := range strings.Split(content, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" {
			continue
		}

		entry := model.ResultEntry{
			Domain:       parts[0],
			PublisherID:  parts[1],
			Relationship: strings.ToUpper(parts[2]),
			SourceURL:    string(model.FormatAdsTxt),
		}
		if len(parts) > 3 {
			entry.Type = parts[3]
		}
		results = append(results, entry)
	}
	return results
}
