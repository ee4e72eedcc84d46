// Package matching implements fuzzy track resolution against catalogs that
// cannot be addressed by a known native id.
//
// Given a title/artist pair, [Matcher] issues a sequence of progressively
// looser search queries and scores every returned candidate with a keyword
// heuristic. Derivative works (remixes, covers, live versions) are penalized
// so the canonical recording wins when both appear in the results.
package matching

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"mixport/internal/shared"
)

// MinScore is the minimum adjusted score a candidate needs to be accepted.
const MinScore = 15

// Candidate is one search result under consideration.
//
// ID is the platform-native identifier, carried as an opaque string even when
// the platform uses numeric ids internally.
type Candidate struct {
	ID     string
	Title  string
	Artist string
}

// SearchFunc performs one catalog search and returns its candidates.
// Implementations should bound the result count and sort by popularity.
type SearchFunc func(ctx context.Context, query string) ([]Candidate, error)

// Matcher resolves a title/artist pair to the best-scoring catalog candidate.
type Matcher struct {
	search SearchFunc
	logger *log.Logger
}

// NewMatcher creates a Matcher backed by the given search function.
func NewMatcher(search SearchFunc, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Matcher{search: search, logger: logger}
}

var (
	parentheticalRe = regexp.MustCompile(`\(([^)]*)\)`)
	featRe          = regexp.MustCompile(`(?i)\b(feat\.?|ft\.?|featuring)\b.*$`)

	// Derivative-work keywords that may appear anywhere in a candidate title.
	remixKeywords = []string{
		"mashup", "cover", "vs", "version", "rework", "flip", "dub",
		"instrumental", "karaoke", "acoustic", "live", "extended",
		"radio edit", "club mix",
	}

	bracketedRemixRe = regexp.MustCompile(`(?i)[(\[][^)\]]*\b(remix|edit|mix|vip|bootleg)\b[^)\]]*[)\]]`)
	trailingRemixRe  = regexp.MustCompile(`(?i)\bremix\s*$`)
)

// cleanTerm strips parenthetical content and featuring markers from a title or
// artist string and trims the result.
func cleanTerm(s string) string {
	s = parentheticalRe.ReplaceAllString(s, " ")
	s = featRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// extractParenthetical returns the cleaned content of the first parenthetical
// group in s, or "" when there is none.
func extractParenthetical(s string) string {
	match := parentheticalRe.FindStringSubmatch(s)
	if match == nil {
		return ""
	}
	inner := featRe.ReplaceAllString(match[1], " ")
	return strings.Join(strings.Fields(inner), " ")
}

// buildQueries produces the ordered, deduplicated search query list for a
// title/artist pair, tightest first.
func buildQueries(title, artists string) []string {
	cleanTitle := cleanTerm(title)
	cleanArtists := cleanTerm(artists)
	parenTitle := extractParenthetical(title)

	mainArtist := cleanArtists
	if first, _, found := strings.Cut(cleanArtists, ","); found {
		mainArtist = strings.TrimSpace(first)
	}

	candidates := []string{
		join(cleanTitle, cleanArtists),
		join(parenTitle, cleanArtists),
		cleanTitle,
		parenTitle,
		join(cleanArtists, cleanTitle),
		join(cleanTitle, mainArtist),
		join(parenTitle, mainArtist),
	}

	seen := make(map[string]struct{}, len(candidates))
	queries := make([]string, 0, len(candidates))
	for _, q := range candidates {
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	return queries
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// scoreCandidate scores a candidate against one target title and the target
// artists. Bonuses are cumulative; an exact title match also earns the
// contains bonuses.
func scoreCandidate(c Candidate, targetTitle, targetArtists string) int {
	if targetTitle == "" {
		return 0
	}

	candTitle := strings.ToLower(c.Title)
	candArtist := strings.ToLower(c.Artist)
	title := strings.ToLower(targetTitle)
	artists := strings.ToLower(targetArtists)

	score := 0
	if candTitle == title {
		score += 100
	}
	if artists != "" && candArtist == artists {
		score += 50
	}

	titleContains := strings.Contains(candTitle, title)
	artistContains := artists != "" && strings.Contains(candArtist, artists)

	if titleContains {
		score += 40
	}
	if artistContains {
		score += 30
	}
	if titleContains && artistContains {
		score += 20
	}

	if len(title) >= 4 && strings.Contains(candTitle, title[:4]) {
		score += 15
	}
	if len(artists) >= 4 && strings.Contains(candArtist, artists[:4]) {
		score += 10
	}

	return score
}

// isDerivative reports whether a candidate title indicates a remix, cover, or
// other alternate version of the recording.
func isDerivative(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range remixKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return bracketedRemixRe.MatchString(title) || trailingRemixRe.MatchString(title)
}

// containsWord reports whether s contains kw on word boundaries, so "vs" does
// not fire inside "versus" or "canvas".
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// adjustedScore applies the derivative-work penalty to a raw score.
func adjustedScore(c Candidate, raw int) int {
	if isDerivative(c.Title) {
		return raw / 3
	}
	return raw
}

// Match resolves a title/artist pair to a native track id.
//
// Queries are tried in order; a failed search is skipped, not fatal. The best
// candidate is kept across queries with strict > comparison so earlier
// equal-scoring candidates win ties. The first query whose batch pushes the
// best score to [MinScore] or above short-circuits the remaining queries.
// Returns ok=false when every query is exhausted without an acceptable match.
func (m *Matcher) Match(ctx context.Context, title, artists string) (string, bool) {
	cleanTitle := cleanTerm(title)
	parenTitle := extractParenthetical(title)
	cleanArtists := cleanTerm(artists)

	bestID := ""
	bestScore := 0

	for _, query := range buildQueries(title, artists) {
		results, err := m.search(ctx, query)
		if err != nil {
			m.logger.Debug("search query failed", "query", query, "error", err)
			continue
		}

		for _, c := range results {
			raw := scoreCandidate(c, cleanTitle, cleanArtists)
			if parenTitle != "" {
				if alt := scoreCandidate(c, parenTitle, cleanArtists); alt > raw {
					raw = alt
				}
			}

			if score := adjustedScore(c, raw); score > bestScore {
				bestScore = score
				bestID = c.ID
			}
		}

		if bestScore >= MinScore {
			return bestID, true
		}
	}

	if bestScore >= MinScore {
		return bestID, true
	}

	m.logger.Debug("no acceptable match", "title", title, "artists", artists, "best_score", bestScore)
	return "", false
}
