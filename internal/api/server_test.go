package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/doideposit/internal/config"
	"github.com/dgallion1/doideposit/internal/crossref"
	"github.com/dgallion1/doideposit/internal/record"
	"github.com/dgallion1/doideposit/internal/sink"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

type fakeValidator struct {
	verdict crossref.Verdict
	err     error
	got     string
}

func (f *fakeValidator) Validate(ctx context.Context, filename, rec string) (crossref.Verdict, error) {
	f.got = rec
	return f.verdict, f.err
}

type fakeDepositor struct {
	resp     *crossref.DepositResponse
	err      error
	filename string
}

func (f *fakeDepositor) Deposit(ctx context.Context, filename, rec string) (*crossref.DepositResponse, error) {
	f.filename = filename
	return f.resp, f.err
}

func testConfig() config.Config {
	return config.Config{
		APIKey:       testAPIKey,
		MaxBodyBytes: 1 << 20,
		DedupWindow:  time.Hour,
		Identity: record.Identity{
			DOIPrefix:     "10.5555",
			JournalTitle:  "Journal of Tests",
			AbbrevTitle:   "JT",
			ISSN:          "12345678",
			DepositorName: "Jane Roe",
			Email:         "jane@example.org",
		},
	}
}

func newTestServer(v Validator, d Depositor, archive sink.Sink) *Server {
	return newTestServerWithConfig(testConfig(), v, d, archive)
}

func newTestServerWithConfig(cfg config.Config, v Validator, d Depositor, archive sink.Sink) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(v, d, archive, crossref.NewLatencyStats(time.Hour), log, cfg)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const paramsJSON = `{
	"year": "1986", "volume": "1", "issue": "2",
	"title": "Cats & Dogs",
	"first_page": "12", "last_page": "24", "doi": "123445",
	"placeholder_author": true
}`

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_Required(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(paramsJSON)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(paramsJSON))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRecord(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(nil, nil, sink.NewFile(dir))
	rec := do(t, s, http.MethodPost, "/api/records", paramsJSON)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	require.Equal(t, "1700000000", rec.Header().Get("X-Batch-ID"))

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, record.DefaultEnvelopeStart))
	require.True(t, strings.HasSuffix(body, record.DefaultEnvelopeEnd))
	require.Contains(t, body, "<title>Cats &amp; Dogs</title>")
	require.Contains(t, body, "<doi_batch_id>1700000000</doi_batch_id>")
	require.Contains(t, body, "<surname>Author</surname>")

	archived, err := os.ReadFile(filepath.Join(dir, "1700000000.xml"))
	require.NoError(t, err)
	require.Equal(t, body, string(archived))
}

func TestCreateRecord_MissingField(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/records", `{"year": "1986"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "volume is required")
}

func TestCreateRecord_MissingContributorName(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	body := strings.Replace(paramsJSON, `"placeholder_author": true`, `"contributors": [{"firstname": "Ada"}]`, 1)
	rec := do(t, s, http.MethodPost, "/api/records", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "lastname is required")
}

func TestCreateRecord_UnknownField(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/records", `{"yeer": "1986"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateRecord(t *testing.T) {
	v := &fakeValidator{verdict: crossref.Verdict{Valid: true, Feedback: "ok"}}
	s := newTestServer(v, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/records/validate", paramsJSON)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, true, got["valid"])
	require.Equal(t, "1700000000", got["batch_id"])
	require.True(t, strings.HasPrefix(v.got, record.DefaultEnvelopeStart))
}

func TestValidateRecord_RemoteFailure(t *testing.T) {
	v := &fakeValidator{err: &crossref.StatusError{Endpoint: "validate", StatusCode: 503, Body: "down"}}
	s := newTestServer(v, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/records/validate", paramsJSON)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, float64(503), got["remote_status"])
	require.Equal(t, "down", got["remote_body"])
}

func TestDepositRecord(t *testing.T) {
	d := &fakeDepositor{resp: &crossref.DepositResponse{StatusCode: 200, Body: "queued"}}
	s := newTestServer(nil, d, nil)
	body := strings.Replace(paramsJSON, `"doi": "123445"`, `"doi": "123445", "doi_batch_id": "../batch/7"`, 1)
	rec := do(t, s, http.MethodPost, "/api/records/deposit", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "__batch_7.xml", d.filename)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "queued", got["body"])
	require.Equal(t, "../batch/7", got["batch_id"])
}

func TestDepositRecord_DuplicateBatch(t *testing.T) {
	d := &fakeDepositor{resp: &crossref.DepositResponse{StatusCode: 200, Body: "queued"}}
	s := newTestServer(nil, d, nil)
	body := strings.Replace(paramsJSON, `"doi": "123445"`, `"doi": "123445", "doi_batch_id": "b1"`, 1)

	rec := do(t, s, http.MethodPost, "/api/records/deposit", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/records/deposit", body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDepositRecord_FailureReleasesBatch(t *testing.T) {
	d := &fakeDepositor{err: &crossref.StatusError{Endpoint: "deposit", StatusCode: 401, Body: "bad credentials"}}
	s := newTestServer(nil, d, nil)
	body := strings.Replace(paramsJSON, `"doi": "123445"`, `"doi": "123445", "doi_batch_id": "b2"`, 1)

	rec := do(t, s, http.MethodPost, "/api/records/deposit", body)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "bad credentials")

	d.err = nil
	d.resp = &crossref.DepositResponse{StatusCode: 200, Body: "queued"}
	rec = do(t, s, http.MethodPost, "/api/records/deposit", body)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordEndpoints_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	v := &fakeValidator{verdict: crossref.Verdict{Valid: true}}
	d := &fakeDepositor{resp: &crossref.DepositResponse{StatusCode: 200}}
	s := newTestServerWithConfig(cfg, v, d, nil)

	for _, path := range []string{"/api/records", "/api/records/validate", "/api/records/deposit", "/api/render"} {
		rec := do(t, s, http.MethodPost, path, paramsJSON)
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, path)
	}
	require.Empty(t, d.filename)
}

func TestDepositRecord_DefaultBatchIDsDoNotCollide(t *testing.T) {
	d := &fakeDepositor{resp: &crossref.DepositResponse{StatusCode: 200, Body: "queued"}}
	s := newTestServer(nil, d, nil)

	rec := do(t, s, http.MethodPost, "/api/records/deposit", paramsJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	other := strings.NewReplacer(`"doi": "123445"`, `"doi": "999999"`, `"Cats & Dogs"`, `"Birds"`).Replace(paramsJSON)
	rec = do(t, s, http.MethodPost, "/api/records/deposit", other)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestDepositRecord_DuplicateKeepsArchivedRecord(t *testing.T) {
	dir := t.TempDir()
	d := &fakeDepositor{resp: &crossref.DepositResponse{StatusCode: 200, Body: "queued"}}
	s := newTestServer(nil, d, sink.NewFile(dir))
	first := strings.Replace(paramsJSON, `"doi": "123445"`, `"doi": "123445", "doi_batch_id": "b3"`, 1)

	rec := do(t, s, http.MethodPost, "/api/records/deposit", first)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	archived, err := os.ReadFile(filepath.Join(dir, "b3.xml"))
	require.NoError(t, err)

	second := strings.Replace(first, `"Cats & Dogs"`, `"Birds"`, 1)
	rec = do(t, s, http.MethodPost, "/api/records/deposit", second)
	require.Equal(t, http.StatusConflict, rec.Code)

	after, err := os.ReadFile(filepath.Join(dir, "b3.xml"))
	require.NoError(t, err)
	require.Equal(t, string(archived), string(after))
	require.Contains(t, string(after), "Cats &amp; Dogs")
}

func TestRender(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/render",
		`{"journal_metadata": {"@language": "en", "full_title": "J", "issn": "1"}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, `<journal_metadata language="en"><full_title>J</full_title><issn>1</issn></journal_metadata>`, rec.Body.String())
}

func TestRender_Envelope(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/render?envelope=true", `{"head": {"registrant": "Crossref"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, record.DefaultEnvelopeStart+"<head><registrant>Crossref</registrant></head>"+record.DefaultEnvelopeEnd, rec.Body.String())
}

func TestRender_Malformed(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/render", `{"a": null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/render", `{"@lang": "en"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "no enclosing element")

	rec = do(t, s, http.MethodPost, "/api/render", `{"a": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoteStats(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	rec := do(t, s, http.MethodGet, "/api/stats/remote", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"count":0`)
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "record", sanitizeFilename(""))
	require.Equal(t, "hidden", sanitizeFilename(".hidden"))
	require.Equal(t, "a_b_c", sanitizeFilename(`a/b\c`))
	require.Equal(t, "2024-01", sanitizeFilename("2024-01"))
}
