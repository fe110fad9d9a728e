package pathresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSplitsFirstSegmentAsBucket(t *testing.T) {
	loc := Resolve("data/input/file.csv", "dev")

	assert.Equal(t, "dev-data", loc.Bucket)
	assert.Equal(t, "input/file.csv", loc.Key)
	assert.Equal(t, "s3a://dev-data/input/file.csv", loc.URI)
}

func TestResolveSingleSegmentLocation(t *testing.T) {
	loc := Resolve("bucketonly", "prod")

	assert.Equal(t, "prod-bucketonly", loc.Bucket)
	assert.Equal(t, "", loc.Key)
	assert.Equal(t, "s3a://prod-bucketonly/", loc.URI)
}
