// Package resolver turns user-entered scan input into retrieval URLs.
package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/adscan/internal/model"
)

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// Normalize trims the input, strips trailing slashes and prepends https://
// when no http or https scheme is present. Host syntax is not validated.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimRight(s, "/")
	if !schemeRe.MatchString(s) {
		s = "https://" + s
	}
	return s
}

// Classify picks the parser for a normalized URL. Any URL containing
// "sellers.json" (case-insensitive) is treated as sellers.json, including
// matches in a query string; everything else is ads.txt.
func Classify(u string) model.Format {
	if strings.Contains(strings.ToLower(u), "sellers.json") {
		return model.FormatSellersJSON
	}
	return model.FormatAdsTxt
}

// BuildAdsTxtCandidates returns the ads.txt URLs to try, in order. The first
// appends /ads.txt to the normalized URL as-is; the second is rebuilt from the
// host alone. The second is omitted when no host can be parsed.
func BuildAdsTxtCandidates(normalized string) []string {
	candidates := []string{normalized + "/ads.txt"}

	u, err := url.Parse(normalized)
	if err != nil || u.Hostname() == "" {
		return candidates
	}
	return append(candidates, "https://"+u.Hostname()+"/ads.txt")
}
