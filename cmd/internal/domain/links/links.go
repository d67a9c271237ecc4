// Package links derives note-to-note references from note content.
package links

import (
	"regexp"
	"strconv"
)

var markerRegex = regexp.MustCompile(`\[\[(\d+)\]\]`)

// Extract returns the ids inside every `[[<digits>]]` marker of content, in
// order of appearance. Duplicates and self references are kept. Digit runs
// too large for an int64 are skipped.
func Extract(content string) []int64 {
	matches := markerRegex.FindAllStringSubmatch(content, -1)
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
