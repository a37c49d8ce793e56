// Package diff isolates the region that changed between two snapshots of a buffer.
package diff

// Region says that old[Start:End] was replaced by Inserted. Offsets are rune indexes.
type Region struct {
	Start    int
	End      int
	Inserted string
}

// NoChange is returned when both snapshots are identical.
var NoChange = Region{Start: -1, End: -1}

// IsNoop reports whether r is the NoChange sentinel.
func (r Region) IsNoop() bool {
	return r.Start < 0
}

// Extract compares two snapshots of the same buffer and returns the single
// contiguous region that turns oldStr into newStr.
//
// The common prefix and the common suffix are stripped with a two pointer scan;
// the suffix scan never crosses the end of the prefix in either string. An edit
// that touched several disjoint places comes back as one region spanning all of
// them.
func Extract(oldStr, newStr string) Region {
	if oldStr == newStr {
		return NoChange
	}

	o, n := []rune(oldStr), []rune(newStr)

	start := 0
	for start < len(o) && start < len(n) && o[start] == n[start] {
		start++
	}

	endOld, endNew := len(o), len(n)
	for endOld > start && endNew > start && o[endOld-1] == n[endNew-1] {
		endOld--
		endNew--
	}

	// Byte-different but rune-equal input (invalid UTF-8 collapsing to U+FFFD).
	if start == endOld && start == endNew {
		return NoChange
	}

	return Region{
		Start:    start,
		End:      endOld,
		Inserted: string(n[start:endNew]),
	}
}
