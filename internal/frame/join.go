package frame

import (
	"fmt"
)

// Join performs a sequential two-frame join, dispatching on how ("inner",
// "left", "right", "outer" — matching the catalog's join_how values).
// leftOn and rightOn must have matching cardinality; join_transformation's
// safety check in the original implementation raises when they don't, and
// this mirrors it as a returned error rather than a panic.
func Join(left, right *Frame, how string, leftOn, rightOn []string) (*Frame, error) {
	if len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("join key cardinality mismatch: %d left keys, %d right keys", len(leftOn), len(rightOn))
	}

	rightIndex := make(map[string][]Row, len(right.Rows))

	for _, rr := range right.Rows {
		key := joinKey(rr, rightOn)
		rightIndex[key] = append(rightIndex[key], rr)
	}

	matchedRight := make(map[string]bool, len(right.Rows))

	cols := unionColumns(left.Columns, right.Columns)
	out := New(cols)

	for _, lr := range left.Rows {
		key := joinKey(lr, leftOn)

		matches := rightIndex[key]
		if len(matches) == 0 {
			if how == "left" || how == "outer" {
				out.Rows = append(out.Rows, mergeRows(lr, nil, cols))
			}

			continue
		}

		matchedRight[key] = true

		for _, rr := range matches {
			out.Rows = append(out.Rows, mergeRows(lr, rr, cols))
		}
	}

	if how == "right" || how == "outer" {
		for _, rr := range right.Rows {
			key := joinKey(rr, rightOn)
			if !matchedRight[key] {
				out.Rows = append(out.Rows, mergeRows(nil, rr, cols))
			}
		}
	}

	return out, nil
}

func joinKey(r Row, cols []string) string {
	key := ""
	for _, c := range cols {
		key += fmt.Sprintf("%v\x1f", r[c])
	}

	return key
}

func unionColumns(a, b []string) []string {
	seen := map[string]bool{}

	var out []string

	for _, c := range append(append([]string{}, a...), b...) {
		if !seen[c] {
			seen[c] = true

			out = append(out, c)
		}
	}

	return out
}

func mergeRows(left, right Row, cols []string) Row {
	out := make(Row, len(cols))

	for _, c := range cols {
		if left != nil {
			if v, ok := left[c]; ok {
				out[c] = v

				continue
			}
		}

		if right != nil {
			out[c] = right[c]
		}
	}

	return out
}
