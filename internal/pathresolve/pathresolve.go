// Package pathresolve maps a logical location ("bucket/key...") plus an
// environment tag to a concrete object-store URI, the single source of
// truth for environment isolation (spec.md §4.5). Grounded on
// Common/S3Process.py's path_to_s3.
package pathresolve

import "strings"

// Location is the resolved {bucket, key, uri} triple.
type Location struct {
	Bucket string
	Key    string
	URI    string
}

// Resolve splits location on "/", prepends "{env}-" to the first segment
// to form the bucket, joins the remaining segments for the key, and
// returns the s3a:// URI.
func Resolve(location, env string) Location {
	segments := strings.Split(location, "/")

	bucket := env + "-" + segments[0]
	key := strings.Join(segments[1:], "/")

	return Location{
		Bucket: bucket,
		Key:    key,
		URI:    "s3a://" + bucket + "/" + key,
	}
}
