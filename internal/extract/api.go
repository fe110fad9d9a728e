package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/delimited"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/jsonmap"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
)

var currentDateToken = regexp.MustCompile(`\$current_date(-\d+)?(:[^$]+)?\$`)

// substituteCurrentDate expands every $current_date[-N][:FORMAT]$
// placeholder in body against now, grounded on ApiExtractor.py's
// _replace_date. FORMAT uses Go's reference-time layout, not strftime —
// callers author catalog rows with Go layouts.
func substituteCurrentDate(body string, now time.Time) string {
	return currentDateToken.ReplaceAllStringFunc(body, func(match string) string {
		inner := strings.Trim(match, "$")

		days := 0
		layout := "2006-01-02"

		if idx := strings.Index(inner, ":"); idx >= 0 {
			layout = inner[idx+1:]
			inner = inner[:idx]
		}

		if n, err := strconv.Atoi(strings.TrimPrefix(inner, "current_date")); err == nil {
			days = n
		}

		return now.AddDate(0, 0, days).Format(layout)
	})
}

// APIExtractor executes a workflow of TOKEN and RESPONSE steps against a
// REST API and maps the JSON response into rows, grounded on
// Extractors/ApiExtractor.py's APIAutomation.
type APIExtractor struct {
	Client *http.Client
	Now    func() time.Time
}

func (e *APIExtractor) Pull(ctx context.Context, req Request, dst objectstore.Store, bucket, prefix string) ([]Pulled, error) {
	client := e.Client
	if client == nil {
		client = NewHostThrottle(0, 0).Client()
	}

	now := e.Now
	if now == nil {
		now = time.Now
	}

	headers := map[string]string{}

	var responseStep *catalog.APIConnectionDtl

	for i, step := range req.APISteps {
		if step.StepType == "TOKEN" {
			h, err := fetchToken(ctx, client, step)
			if err != nil {
				return nil, fmt.Errorf("extract: fetching API token: %w", err)
			}

			for k, v := range h {
				headers[k] = v
			}

			continue
		}

		responseStep = &req.APISteps[i]

		break
	}

	if responseStep == nil {
		return nil, fmt.Errorf("extract: no RESPONSE step in API workflow")
	}

	docs, err := executeResponseStep(ctx, client, *responseStep, headers, now())
	if err != nil {
		return nil, err
	}

	mappings := make([]jsonmap.ColumnMapping, 0, len(req.Columns))
	columns := make([]string, 0, len(req.Columns))

	for _, c := range req.Columns {
		mappings = append(mappings, jsonmap.ColumnMapping{Column: c.ColumnName, Path: c.ColumnJSONPath})
		columns = append(columns, c.ColumnName)
	}

	out := frame.New(columns)

	for _, doc := range docs {
		f, err := jsonmap.Map(doc, mappings)
		if err != nil {
			return nil, err
		}

		out.Rows = append(out.Rows, f.Rows...)
	}

	sourceLocation := fmt.Sprintf("api://dataset-%d", req.Detail.PreIngestionDatasetID)
	if req.Dedupe != nil && req.Dedupe.Contains(sourceLocation) {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := delimited.Write(&buf, out, ","); err != nil {
		return nil, fmt.Errorf("extract: serializing api response to csv: %w", err)
	}

	name := fmt.Sprintf("dataset-%d-%s.csv", req.Detail.PreIngestionDatasetID, now().UTC().Format("20060102150405"))
	inboundKey := strings.TrimSuffix(prefix, "/") + "/" + name

	if err := dst.Put(ctx, bucket, inboundKey, bytes.NewReader(buf.Bytes())); err != nil {
		return nil, fmt.Errorf("extract: writing inbound object %s: %w", inboundKey, err)
	}

	return []Pulled{{SourceLocation: sourceLocation, InboundKey: inboundKey}}, nil
}

func fetchToken(ctx context.Context, client *http.Client, step catalog.APIConnectionDtl) (map[string]string, error) {
	switch step.AuthType {
	case "oauth":
		cfg := clientcredentials.Config{
			ClientID:     step.ClientID,
			ClientSecret: step.ClientSecret,
			TokenURL:     step.TokenURL,
		}

		token, err := cfg.Token(ctx)
		if err != nil {
			return nil, err
		}

		tokenType := step.TokenType
		if tokenType == "" {
			tokenType = token.TokenType
		}

		return map[string]string{"Authorization": tokenType + " " + token.AccessToken}, nil

	case "service_account":
		now := time.Now()
		claims := jwt.MapClaims{
			"iss":   step.Issuer,
			"scope": step.Scope,
			"aud":   step.TokenURL,
			"exp":   now.Add(60 * time.Minute).Unix(),
			"iat":   now.Unix(),
		}

		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(step.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parsing service-account private key: %w", err)
		}

		assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
		if err != nil {
			return nil, fmt.Errorf("signing jwt-bearer assertion: %w", err)
		}

		form := url.Values{
			"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
			"assertion":  {assertion},
		}

		resp, err := client.PostForm(step.TokenURL, form)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, err
		}

		tokenPath := step.TokenPath
		if tokenPath == "" {
			tokenPath = "access_token"
		}

		return map[string]string{"Authorization": "Bearer " + fmt.Sprintf("%v", body[tokenPath])}, nil

	case "basic_auth":
		return map[string]string{"Authorization": "Basic " + basicAuthValue(step.Username, step.Password)}, nil

	default:
		return nil, fmt.Errorf("unsupported auth_type %q", step.AuthType)
	}
}

func basicAuthValue(username, password string) string {
	req, _ := http.NewRequest(http.MethodGet, "http://placeholder", nil)
	req.SetBasicAuth(username, password)

	return strings.TrimPrefix(req.Header.Get("Authorization"), "Basic ")
}

// executeResponseStep issues the RESPONSE step's HTTP call, expanding
// body_values into a Cartesian product of concurrent requests when
// present — the Go analogue of ApiExtractor.py's niquests multiplexed
// session, done with goroutines rather than HTTP/2 stream multiplexing.
func executeResponseStep(ctx context.Context, client *http.Client, step catalog.APIConnectionDtl, headers map[string]string, now time.Time) ([]any, error) {
	method := step.Method
	if method == "" {
		method = http.MethodGet
	}

	bodies, err := expandBodyValues(step, now)
	if err != nil {
		return nil, err
	}

	docs := make([]any, len(bodies))

	var (
		wg       sync.WaitGroup
		firstErr error
		mu       sync.Mutex
	)

	for i, body := range bodies {
		wg.Add(1)

		go func(i int, body string) {
			defer wg.Done()

			doc, err := doJSONRequest(ctx, client, method, step.URL, headers, body)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
				}

				return
			}

			docs[i] = doc
		}(i, body)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return docs, nil
}

// expandBodyValues substitutes $current_date placeholders in the step's
// JSON body and, when body_values declares placeholder-to-value-list
// pairs, returns one body per combination in the Cartesian product.
func expandBodyValues(step catalog.APIConnectionDtl, now time.Time) ([]string, error) {
	base := step.JSONBody
	if base == "" {
		base = step.DataJSON
	}

	base = substituteCurrentDate(base, now)

	if step.BodyValues == "" {
		return []string{base}, nil
	}

	var groups []map[string][]string
	if err := json.Unmarshal([]byte(step.BodyValues), &groups); err != nil {
		return nil, fmt.Errorf("parsing body_values: %w", err)
	}

	bodies := []string{base}

	for _, group := range groups {
		for placeholder, values := range group {
			var next []string

			for _, b := range bodies {
				for _, v := range values {
					next = append(next, strings.ReplaceAll(b, placeholder, v))
				}
			}

			bodies = next
		}
	}

	return bodies, nil
}

func doJSONRequest(ctx context.Context, client *http.Client, method, rawURL string, headers map[string]string, body string) (any, error) {
	var bodyReader io.Reader
	if body != "" && body != "{}" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api request to %s failed with status %d", rawURL, resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	return doc, nil
}
