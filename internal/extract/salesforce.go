package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/delimited"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
)

// salesforceConnectionConfig is the shape acquisition_connection_master.connection_json
// carries for a Salesforce- or Veeva-platform outbound source — both are
// Salesforce-derived SOAP/REST platforms authenticating the same way,
// grounded on Extractors/SalesforceExtractor.py.
type salesforceConnectionConfig struct {
	InstanceURL  string `json:"instance_url"`
	TokenURL     string `json:"token_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	APIVersion   string `json:"api_version"`
}

// salesforceQueryResult is the REST /queryAll endpoint's response envelope.
type salesforceQueryResult struct {
	Records    []map[string]any `json:"records"`
	NextRecord string           `json:"nextRecordsUrl"`
	Done       bool             `json:"done"`
}

// SalesforceExtractor runs a SOQL query (acquisition_detail.query) against
// the Salesforce/Veeva REST API, paging through nextRecordsUrl, grounded
// on Extractors/SalesforceExtractor.py.
type SalesforceExtractor struct {
	Now func() time.Time
}

func (e *SalesforceExtractor) Pull(ctx context.Context, req Request, dst objectstore.Store, bucket, prefix string) ([]Pulled, error) {
	var cfg salesforceConnectionConfig
	if err := json.Unmarshal([]byte(req.Connection.ConnectionJSON), &cfg); err != nil {
		return nil, fmt.Errorf("extract: parsing salesforce connection_json: %w", err)
	}

	now := e.Now
	if now == nil {
		now = time.Now
	}

	oauthCfg := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	client := oauthCfg.Client(ctx)

	version := cfg.APIVersion
	if version == "" {
		version = "v62.0"
	}

	path := fmt.Sprintf("/services/data/%s/queryAll?q=%s", version, url.QueryEscape(req.Detail.Query))

	columns := make([]string, 0, len(req.Columns))
	for _, c := range req.Columns {
		columns = append(columns, c.ColumnName)
	}

	out := frame.New(columns)

	for path != "" {
		resp, err := client.Get(cfg.InstanceURL + path)
		if err != nil {
			return nil, fmt.Errorf("extract: salesforce query request: %w", err)
		}

		var page salesforceQueryResult
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()

			return nil, err
		}

		resp.Body.Close()

		for _, record := range page.Records {
			row := make(frame.Row, len(columns))
			for _, col := range columns {
				row[col] = record[col]
			}

			out.Rows = append(out.Rows, row)
		}

		if page.Done || page.NextRecord == "" {
			break
		}

		path = page.NextRecord
	}

	sourceLocation := fmt.Sprintf("salesforce://dataset-%d", req.Detail.PreIngestionDatasetID)
	if req.Dedupe != nil && req.Dedupe.Contains(sourceLocation) {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := delimited.Write(&buf, out, ","); err != nil {
		return nil, fmt.Errorf("extract: serializing salesforce result to csv: %w", err)
	}

	name := fmt.Sprintf("dataset-%d-%s.csv", req.Detail.PreIngestionDatasetID, now().UTC().Format("20060102150405"))
	inboundKey := strings.TrimSuffix(prefix, "/") + "/" + name

	if err := dst.Put(ctx, bucket, inboundKey, bytes.NewReader(buf.Bytes())); err != nil {
		return nil, fmt.Errorf("extract: writing inbound object %s: %w", inboundKey, err)
	}

	return []Pulled{{SourceLocation: sourceLocation, InboundKey: inboundKey}}, nil
}
