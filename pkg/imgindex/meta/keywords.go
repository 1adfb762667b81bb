package meta

import (
	"path"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"imgindex/pkg/imgindex/types"
)

// trivialSegments are path segments carrying no search value.
var trivialSegments = map[string]bool{
	"images":  true,
	"content": true,
}

var numericPattern = regexp.MustCompile(`[0-9]+`)

// Category returns the first segment of a root-relative path, or the
// default category when the file sits directly under the root.
func Category(relPath string) string {
	relPath = types.NormalizePath(relPath)
	segments := strings.Split(relPath, "/")
	if len(segments) < 2 || segments[0] == "" {
		return types.DefaultCategory
	}
	return segments[0]
}

// Keywords derives the search token set for a root-relative image path.
// The set is the deduplicated lowercase union of the filename stem, the
// category, the non-trivial path segments, numeric substrings of the
// filename, and underscore/dash-delimited tokens longer than one character.
func Keywords(relPath, category string) []string {
	relPath = types.NormalizePath(relPath)
	filename := path.Base(relPath)
	stem := strings.TrimSuffix(filename, path.Ext(filename))

	keywords := []string{strings.ToLower(stem), strings.ToLower(category)}

	for _, segment := range strings.Split(path.Dir(relPath), "/") {
		segment = strings.ToLower(segment)
		if segment == "" || segment == "." || trivialSegments[segment] {
			continue
		}
		keywords = append(keywords, segment)
	}

	keywords = append(keywords, numericPattern.FindAllString(filename, -1)...)

	for _, token := range strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-'
	}) {
		if len(token) > 1 {
			keywords = append(keywords, strings.ToLower(token))
		}
	}

	return lo.Uniq(keywords)
}
