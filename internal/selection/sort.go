package selection

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// TableNumber returns the numeric suffix of a table id after stripping its
// non-digit prefix ("T10" -> 10). ok is false when what remains is empty
// or not all digits.
func TableNumber(id string) (n int, ok bool) {
	rest := strings.TrimLeftFunc(strings.TrimSpace(id), func(r rune) bool { return !unicode.IsDigit(r) })
	if rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortTableIDs returns ids ordered by numeric suffix. Ids without a
// parseable suffix follow, in their original relative order. The input
// slice is not modified.
func SortTableIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, oki := TableNumber(out[i])
		nj, okj := TableNumber(out[j])
		switch {
		case oki && okj:
			return ni < nj
		case oki:
			return true
		default:
			return false
		}
	})
	return out
}

func sortStrings(s []string) { sort.Strings(s) }
