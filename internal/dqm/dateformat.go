package dqm

import "regexp"

// dateFormatRegex maps a date/time format token to its validation regex,
// grounded on Common/RegexDateFormats.py's get_date_regex. The original
// only returns its computed regex on the unmatched default branch -- every
// named format falls through without a return and yields None. spec.md §9
// directs implementing the evidently intended behavior: always return the
// regex matching the requested format.
var dateFormatRegex = map[string]string{
	`%Y-%m-%dT%H:%M:%S+0000`:                     `^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}\+[0-9]{4}$`,
	`%Y`:                                         `^[0-9]{4}$`,
	`%Y-%m-%dT%H:%M:%S.%f+0000`:                  `^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}\.[0-9]{3}\+[0-9]{4}$`,
	`MM/DD/YYYY`:                                 `^[0-9]{2}/[0-9]{2}/[0-9]{4}$`,
	`YYYY-MM-DD HH24:MI:SS`:                      `^[0-9]{4}-[0-9]{2}-[0-9]{2} [0-9]{2}:[0-9]{2}:[0-9]{2}$`,
	`%Y-%m-%dT%H:%M:%S.000Z`:                     `^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}\.[0-9]{3}Z$`,
	`YYYYMMDD`:                                   `^[0-9]{4}[0-9]{2}[0-9]{2}$`,
	`yyyy-MM-dd HH:mm:ss.nnnnnnn {+|-}hh:mm`:      `^[0-9]{4}-[0-9]{2}-[0-9]{2} [0-9]{2}:[0-9]{2}:[0-9]{2}\.[0-9]{1,7} [+-][0-9]{2}:[0-9]{2}$`,
}

const defaultDateFormatRegex = `^[0-9]{2}/[0-9]{2}/[0-9]{4}$`

// dateRegexFor returns the compiled regex for a qc_param date format
// token, falling back to the MM/DD/YYYY default when the token is
// unrecognized.
func dateRegexFor(format string) *regexp.Regexp {
	if pattern, ok := dateFormatRegex[format]; ok {
		return regexp.MustCompile(pattern)
	}

	return regexp.MustCompile(defaultDateFormatRegex)
}
