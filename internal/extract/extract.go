// Package extract pulls data from outbound systems (SFTP, S3-compatible
// object stores, relational databases, REST/SaaS APIs) into the
// framework's inbound object store, one adapter per
// acquisition_connection_master.platform value. Grounded on the
// Extractors/ package: SftpExtractor.py, S3Extractor.py,
// DatabaseExtractor.py, ApiExtractor.py, SalesforceExtractor.py.
package extract

import (
	"context"
	"fmt"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
)

// Request bundles everything one acquisition_detail row's pull needs.
type Request struct {
	Detail     catalog.AcquisitionDetail
	Connection *catalog.AcquisitionConnectionMaster
	APISteps   []catalog.APIConnectionDtl
	Columns    []catalog.ColumnMetadata
	Dedupe     Dedupe
}

// Dedupe reports whether a candidate source location has already been
// pulled successfully, matching log_acquisition's role as the inbound
// dedupe set (spec.md §4.2).
type Dedupe interface {
	Contains(location string) bool
}

// Pulled is one object successfully copied into the inbound location.
type Pulled struct {
	SourceLocation string // identity used for log_acquisition and future dedupe
	InboundKey     string
}

// Extractor pulls every new object a Request names into dst under
// bucket/prefix, skipping anything Dedupe already reports as succeeded.
type Extractor interface {
	Pull(ctx context.Context, req Request, dst objectstore.Store, bucket, prefix string) ([]Pulled, error)
}

// Dispatch selects the Extractor for one outbound_source_platform value,
// mirroring BronzeLayer.py's _handle_extraction if/elif ladder.
func Dispatch(platform string) (Extractor, error) {
	switch platform {
	case "SFTP":
		return &SFTPExtractor{}, nil
	case "S3":
		return &S3Extractor{}, nil
	case "DATABASE":
		return &DatabaseExtractor{}, nil
	case "API":
		return &APIExtractor{}, nil
	case "SALESFORCE", "VEEVA":
		return &SalesforceExtractor{}, nil
	default:
		return nil, fmt.Errorf("extract: unsupported outbound_source_platform %q", platform)
	}
}
