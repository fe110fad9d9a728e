// Package pattern validates file names against catalog-declared patterns
// with date tokens and "*" wildcards, or against a raw regular expression
// when the catalog row flags the pattern as static/custom. Grounded on
// Common/PatternValidator.py.
package pattern

import (
	"regexp"
	"strings"
)

var dateTokens = []struct {
	token string
	regex string
}{
	// Longest token first: YYYYMMDD must be tried before YYYYMM before YYYY,
	// or a short token would consume part of a longer one.
	{"YYYYMMDD", "[0-9]{8}"},
	{"YYYYMM", "[0-9]{6}"},
	{"YYYY", "[0-9]{4}"},
}

// Validate reports whether fileName matches filePattern.
//
// When custom is true, filePattern is used verbatim as a regular
// expression against fileName. Otherwise filePattern is split on "*"
// (each "*" becomes ".*") and any date token within each literal segment is
// expanded to its digit-count regex before the segments are rejoined and
// anchored.
func Validate(filePattern, fileName string, custom bool) (bool, error) {
	if custom {
		re, err := regexp.Compile(filePattern)
		if err != nil {
			return false, err
		}

		return re.MatchString(fileName), nil
	}

	re, err := regexp.Compile("^" + compile(filePattern) + "$")
	if err != nil {
		return false, err
	}

	return re.MatchString(fileName), nil
}

// compile expands a pattern's date tokens and "*" wildcards into a regex
// body (unanchored).
func compile(filePattern string) string {
	segments := strings.Split(filePattern, "*")
	for i, seg := range segments {
		segments[i] = expandDateToken(seg)
	}

	return strings.Join(segments, ".*")
}

// expandDateToken replaces the first date token found in seg (longest
// match wins) with its regex, leaving the rest of the literal segment
// escaped. Only one token type is substituted per segment, matching the
// original's single-token-per-literal design.
func expandDateToken(seg string) string {
	for _, dt := range dateTokens {
		if idx := strings.Index(seg, dt.token); idx >= 0 {
			before := regexp.QuoteMeta(seg[:idx])
			after := regexp.QuoteMeta(seg[idx+len(dt.token):])

			return before + dt.regex + after
		}
	}

	return regexp.QuoteMeta(seg)
}
