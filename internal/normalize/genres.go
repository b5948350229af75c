package normalize

import (
	"sort"
	"strings"
)

// Tag length bounds. Anything outside is provider noise ("a", pasted bios).
const (
	minGenreLen = 2
	maxGenreLen = 40
)

// genreBlacklist holds community tags that are not genres.
var genreBlacklist = map[string]bool{
	"seen live":            true,
	"favorites":            true,
	"favourites":           true,
	"unknown":              true,
	"misc":                 true,
	"all":                  true,
	"under 2000 listeners": true,
}

// Genres cleans a raw provider tag list into a canonical genre set:
// trimmed, lowercased, deduplicated, filtered against the blacklist and
// length bounds, and sorted. Output order is independent of input order.
func Genres(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		if len(tag) < minGenreLen || len(tag) > maxGenreLen {
			continue
		}
		if genreBlacklist[tag] {
			continue
		}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// JoinGenres renders a normalized genre set the way it is persisted on an
// album record.
func JoinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}
