package extract

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
)

func TestAPIExtractorLandsCSVNotNDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[{"region":"EU","total":1},{"region":"US","total":2}]}`))
	}))
	defer srv.Close()

	e := &APIExtractor{Now: fixedNow}

	req := Request{
		Detail: catalog.AcquisitionDetail{PreIngestionDatasetID: 7},
		APISteps: []catalog.APIConnectionDtl{
			{StepType: "RESPONSE", Method: http.MethodGet, URL: srv.URL},
		},
		Columns: []catalog.ColumnMetadata{
			{ColumnName: "region", ColumnJSONPath: "$.rows[*].region"},
			{ColumnName: "total", ColumnJSONPath: "$.rows[*].total"},
		},
	}

	dst := objectstore.NewMemStore()

	pulled, err := e.Pull(context.Background(), req, dst, "dev-inbound", "api")
	require.NoError(t, err)
	require.Len(t, pulled, 1)
	assert.True(t, strings.HasSuffix(pulled[0].InboundKey, ".csv"))

	rc, err := dst.Get(context.Background(), "dev-inbound", pulled[0].InboundKey)
	require.NoError(t, err)
	defer rc.Close()

	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"region", "total"}, records[0])
	assert.Equal(t, []string{"EU", "1"}, records[1])
	assert.Equal(t, []string{"US", "2"}, records[2])
}

func TestSalesforceExtractorUsesQueryAllAndProjectsColumns(t *testing.T) {
	var requestedPath string

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	mux.HandleFunc("/services/data/v62.0/queryAll", func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"records": [
				{"Id": "001", "Name": "Acme", "IsDeleted": true},
				{"Id": "002", "Name": "Globex", "IsDeleted": false}
			],
			"done": true
		}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := &SalesforceExtractor{Now: fixedNow}

	req := Request{
		Detail: catalog.AcquisitionDetail{PreIngestionDatasetID: 9, Query: "SELECT Id, Name FROM Account"},
		Connection: &catalog.AcquisitionConnectionMaster{
			ConnectionJSON: `{"instance_url":"` + srv.URL + `","token_url":"` + srv.URL + `/oauth/token"}`,
		},
		Columns: []catalog.ColumnMetadata{
			{ColumnName: "Id"},
			{ColumnName: "Name"},
		},
	}

	dst := objectstore.NewMemStore()

	pulled, err := e.Pull(context.Background(), req, dst, "dev-inbound", "salesforce")
	require.NoError(t, err)
	require.Len(t, pulled, 1)

	assert.Equal(t, "/services/data/v62.0/queryAll", requestedPath)
	assert.True(t, strings.HasSuffix(pulled[0].InboundKey, ".csv"))

	rc, err := dst.Get(context.Background(), "dev-inbound", pulled[0].InboundKey)
	require.NoError(t, err)
	defer rc.Close()

	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Id", "Name"}, records[0])
	assert.Equal(t, []string{"001", "Acme"}, records[1])
	assert.Equal(t, []string{"002", "Globex"}, records[2])
}
