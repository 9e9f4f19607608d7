// Package workitem collects ticket references ("#123") from
// commit messages.
package workitem

import (
	"regexp"
	"sort"
	"strings"
)

// marker precedes every ticket id in a commit message.
const marker = '#'

var reference = regexp.MustCompile(`#\d+`)

// Set is an unordered collection of work item ids.
type Set map[string]struct{}

// Extract returns the ids of every "#<digits>" reference found
// in lines, without the leading marker. Lines without a
// reference contribute nothing; no references at all yields an
// empty set.
func Extract(lines []string) Set {
	set := make(Set)

	for _, line := range lines {
		for _, ref := range reference.FindAllString(line, -1) {
			set[strings.TrimPrefix(ref, string(marker))] = struct{}{}
		}
	}

	return set
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]

	return ok
}

// IDs returns the ids in ascending numeric order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return lessNumeric(ids[i], ids[j])
	})

	return ids
}

// lessNumeric orders digit strings of any length by value.
// Equal values differing only in leading zeros fall back to
// string order.
func lessNumeric(a, b string) bool {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")

	if len(ta) != len(tb) {
		return len(ta) < len(tb)
	}

	if ta != tb {
		return ta < tb
	}

	return a < b
}

// Describe renders a pull request description listing the
// work items. It returns an empty string for an empty set.
func Describe(s Set) string {
	if len(s) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("Work items:\n")

	for _, id := range s.IDs() {
		sb.WriteString("- ")
		sb.WriteRune(marker)
		sb.WriteString(id)
		sb.WriteByte('\n')
	}

	return sb.String()
}
