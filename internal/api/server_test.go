package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/launch"
	launchstub "clawnch-scanner/internal/launch/stub"
	"clawnch-scanner/internal/platforms"
	platformstub "clawnch-scanner/internal/platforms/stub"
	"clawnch-scanner/internal/scanner"
	"clawnch-scanner/internal/solana"
	solanastub "clawnch-scanner/internal/solana/stub"
	"clawnch-scanner/internal/storage"
	"clawnch-scanner/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	server   *Server
	handler  http.Handler
	source   *platformstub.Source
	dedup    *memory.DedupStore
	activity *memory.ActivityLog
	registry *memory.TokenRegistry
	archive  *memory.LaunchArchive
	outcomes *memory.OutcomeStore
	rpc      *solanastub.RPCClient
	builder  *launchstub.TxBuilder
	signer   *solana.Keypair
}

type fixtureOption func(*Options)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	signer, err := solana.NewKeypair()
	require.NoError(t, err)

	f := &fixture{
		source:   platformstub.NewSource(domain.PlatformMoltbook),
		dedup:    memory.NewDedupStore(),
		activity: memory.NewActivityLog(),
		registry: memory.NewTokenRegistry(),
		archive:  memory.NewLaunchArchive(),
		outcomes: memory.NewOutcomeStore(),
		rpc:      solanastub.NewRPCClient(),
		builder:  launchstub.NewTxBuilder(),
		signer:   signer,
	}

	orch := launch.New(launch.Options{
		Metadata:  launchstub.NewMetadataStore("https://ipfs.example/meta.json"),
		Builder:   f.builder,
		RPC:       f.rpc,
		Confirmer: &launchstub.Confirmer{},
		Registry:  f.registry,
		Archive:   f.archive,
		Now:       func() time.Time { return now },
	})

	runner := scanner.New(scanner.Options{
		Fetcher:  platforms.NewFetcher(nil, f.source),
		Dedup:    f.dedup,
		Activity: f.activity,
		Launcher: orch,
		Signer:   signer,
		Outcomes: f.outcomes,
		Now:      func() time.Time { return now },
	})

	o := Options{
		Scanner:  runner,
		Launcher: orch,
		Signer:   signer,
		Balance:  f.rpc,
		Activity: f.activity,
		Registry: f.registry,
		Archive:  f.archive,
		Outcomes: f.outcomes,
		Now:      func() time.Time { return now },
	}
	for _, opt := range opts {
		opt(&o)
	}

	f.server = New(o)
	f.handler = f.server.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func validLaunchBody() map[string]string {
	return map[string]string{
		"name":        "Api Coin",
		"symbol":      "api",
		"description": "launched over http",
		"imageUrl":    "https://example.com/api.png",
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/health", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clawnch_api_requests_total")
}

func TestScan_Auth(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.CronSecret = "s3cret" })

	rec := f.do(t, http.MethodGet, "/scan", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/scan", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/scan", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/scan?secret=s3cret", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScan_OpenWithoutSecret(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/scan", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScan_LaunchesAndReports(t *testing.T) {
	f := newFixture(t)
	f.source.Posts = []domain.SocialPost{
		platformstub.Post(domain.PlatformMoltbook, "p1",
			"!clawnch\nname: Foo\nsymbol: foo\ndescription: bar\nimage: https://example.com/a.png", now.Add(-time.Minute)),
		platformstub.Post(domain.PlatformMoltbook, "p2", "just chatting", now.Add(-2*time.Minute)),
	}

	rec := f.do(t, http.MethodGet, "/scan?debug=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["postsScanned"])
	assert.Equal(t, float64(1), body["tokensLaunched"])
	require.Contains(t, body, "debug")

	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "launched", first["status"])
	assert.NotEmpty(t, first["tokenMint"])

	count, err := f.registry.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rec = f.do(t, http.MethodGet, "/scan", nil)
	body = decode(t, rec)
	assert.Equal(t, float64(0), body["postsScanned"])
	assert.NotContains(t, body, "debug")
}

func TestLaunch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/launch", validLaunchBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	mint := data["tokenMint"].(string)
	assert.NotEmpty(t, mint)
	assert.NotEmpty(t, data["signature"])
	assert.Equal(t, "https://pump.fun/coin/"+mint, data["pumpFunUrl"])

	require.Len(t, f.builder.Calls, 1)
	assert.Equal(t, "API", f.builder.Calls[0].Symbol)

	record, err := f.archive.GetByMint(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformManual, record.Platform)
	assert.True(t, strings.HasPrefix(record.PostID, "api-"))
}

func TestLaunch_Validation(t *testing.T) {
	f := newFixture(t)

	body := validLaunchBody()
	delete(body, "description")
	rec := f.do(t, http.MethodPost, "/launch", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "description")

	body = validLaunchBody()
	body["imageUrl"] = "https://example.com/page"
	rec = f.do(t, http.MethodPost, "/launch", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/launch", strings.NewReader("{broken"))
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)

	assert.Empty(t, f.builder.Calls)
}

func TestLaunch_Failure(t *testing.T) {
	f := newFixture(t)
	f.builder.Err = errors.New("pumpportal: 502 bad gateway")

	rec := f.do(t, http.MethodPost, "/launch", validLaunchBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "build transaction")
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	body := map[string]string{
		"platform":    "moltx",
		"postId":      "mx-1",
		"name":        "Sub",
		"symbol":      "sub",
		"description": "submitted",
		"imageUrl":    "https://example.com/s.png",
	}
	rec := f.do(t, http.MethodPost, "/submit", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "launched", data["status"])
	assert.Equal(t, "mx-1", data["postId"])

	ok, err := f.dedup.IsProcessed(context.Background(), domain.PlatformMoltx, "mx-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Same id again
	rec = f.do(t, http.MethodPost, "/submit", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, f.builder.Calls, 1)
}

func TestSubmit_GeneratedID(t *testing.T) {
	f := newFixture(t)

	body := validLaunchBody()
	rec := f.do(t, http.MethodPost, "/submit", body)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "manual", data["platform"])
	assert.True(t, strings.HasPrefix(data["postId"].(string), "manual-"))

	entries, err := f.activity.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manual", entries[0].Author)
}

func TestSubmit_FailedLaunch(t *testing.T) {
	f := newFixture(t)
	f.builder.Err = errors.New("boom")

	rec := f.do(t, http.MethodPost, "/submit", validLaunchBody())
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "error", out["data"].(map[string]any)["status"])
}

func TestSubmit_UnknownPlatform(t *testing.T) {
	f := newFixture(t)

	body := validLaunchBody()
	body["platform"] = "myspace"
	rec := f.do(t, http.MethodPost, "/submit", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.RateLimit = rate.Every(time.Hour)
		o.Burst = 2
	})

	body := validLaunchBody()
	delete(body, "name")

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/launch", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/submit", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Read endpoints are not limited
	rec = f.do(t, http.MethodGet, "/activity", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodGet, "/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Empty(t, data["activity"])
	assert.Nil(t, data["lastRun"])

	for i := 0; i < 60; i++ {
		require.NoError(t, f.activity.Append(ctx, domain.ActivityEntry{
			Platform:   domain.PlatformMoltbook,
			PostID:     "p",
			TokenMint:  "m",
			LaunchedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, f.activity.SetLastRun(ctx, now))

	rec = f.do(t, http.MethodGet, "/activity", nil)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Len(t, data["activity"], storage.ActivityDefaultRead)
	assert.Equal(t, now.Format(time.RFC3339Nano), data["lastRun"])

	rec = f.do(t, http.MethodGet, "/activity?limit=500", nil)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Len(t, data["activity"], storage.ActivityMaxRead)

	rec = f.do(t, http.MethodGet, "/activity?limit=abc", nil)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Len(t, data["activity"], storage.ActivityDefaultRead)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wallet := f.signer.PublicKey().String()
	f.rpc.Balances[wallet] = 1_234_567_890
	require.NoError(t, f.registry.Add(ctx, "mint-a"))
	require.NoError(t, f.outcomes.InsertBulk(ctx, "run-1", []domain.ScanResult{
		{Platform: domain.PlatformMoltbook, PostID: "x", Status: domain.ScanStatusInvalid, Timestamp: now},
	}))

	rec := f.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, wallet, data["wallet"])
	assert.Equal(t, "1234567890", data["balanceLamports"])
	assert.Equal(t, "1.234568", data["balanceSOL"])
	assert.Equal(t, float64(1), data["tokensLaunched"])
	assert.Equal(t, float64(1), data["outcomes"].(map[string]any)["invalid"])
}

func TestStats_DegradesOnRPCError(t *testing.T) {
	f := newFixture(t)
	f.rpc.BalanceErr = errors.New("rpc down")

	rec := f.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "0", data["balanceLamports"])
	assert.Equal(t, "0.000000", data["balanceSOL"])
}

func TestStats_NoWallet(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Signer = nil })
	rec := f.do(t, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLaunches(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/launch", validLaunchBody())
	require.Equal(t, http.StatusOK, rec.Code)
	mint := decode(t, rec)["data"].(map[string]any)["tokenMint"].(string)

	rec = f.do(t, http.MethodGet, "/launches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, mint, list[0].(map[string]any)["tokenMint"])

	rec = f.do(t, http.MethodGet, "/launches/"+mint, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Api Coin", decode(t, rec)["data"].(map[string]any)["name"])

	rec = f.do(t, http.MethodGet, "/launches/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLaunches_NoArchive(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Archive = nil })
	rec := f.do(t, http.MethodGet, "/launches", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLaunches_RegisteredOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/launch", validLaunchBody())
	require.Equal(t, http.StatusOK, rec.Code)
	mint := decode(t, rec)["data"].(map[string]any)["tokenMint"].(string)

	// Archived but never registered by the platform wallet
	require.NoError(t, f.archive.Insert(ctx, &domain.LaunchRecord{
		TokenMint:  "foreignMint",
		Signature:  "sig-foreign",
		Platform:   domain.PlatformManual,
		PostID:     "x",
		LaunchedAt: now,
		CreatedAt:  now,
	}))

	rec = f.do(t, http.MethodGet, "/launches", nil)
	assert.Len(t, decode(t, rec)["data"].([]any), 2)

	rec = f.do(t, http.MethodGet, "/launches?registered=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, mint, list[0].(map[string]any)["tokenMint"])
}

func TestTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodGet, "/tokens", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(0), data["count"])
	assert.Empty(t, data["tokens"])

	require.NoError(t, f.registry.Add(ctx, "mintB"))
	require.NoError(t, f.registry.Add(ctx, "mintA"))

	rec = f.do(t, http.MethodGet, "/tokens", nil)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, []any{"mintA", "mintB"}, data["tokens"])
}

type recordingSender struct {
	raw []byte
	err error
}

func (s *recordingSender) SendTransaction(_ context.Context, raw []byte) (string, error) {
	s.raw = raw
	if s.err != nil {
		return "", s.err
	}
	return "relayedSig", nil
}

func TestSendTx(t *testing.T) {
	sender := &recordingSender{}
	f := newFixture(t, func(o *Options) { o.Sender = sender })

	payload := []byte{1, 2, 3, 4}
	rec := f.do(t, http.MethodPost, "/send-tx", map[string]string{
		"transaction": base64.StdEncoding.EncodeToString(payload),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "relayedSig", body["data"])
	assert.Equal(t, payload, sender.raw)
}

func TestSendTx_Errors(t *testing.T) {
	sender := &recordingSender{}
	f := newFixture(t, func(o *Options) {
		o.Sender = sender
		o.RateLimit = rate.Inf
	})

	rec := f.do(t, http.MethodPost, "/send-tx", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "transaction required", decode(t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/send-tx", map[string]string{"transaction": "not base64!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sender.err = errors.New("Transaction simulation failed")
	rec = f.do(t, http.MethodPost, "/send-tx", map[string]string{"transaction": "AQ=="})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	f = newFixture(t)
	rec = f.do(t, http.MethodPost, "/send-tx", map[string]string{"transaction": "AQ=="})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScanRun(t *testing.T) {
	f := newFixture(t)
	f.source.Posts = []domain.SocialPost{
		platformstub.Post(domain.PlatformMoltbook, "p1", "gm", now.Add(-time.Minute)),
	}

	rec := f.do(t, http.MethodGet, "/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runID := decode(t, rec)["runId"].(string)

	rec = f.do(t, http.MethodGet, "/scan/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode(t, rec)["data"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "invalid", results[0].(map[string]any)["status"])

	rec = f.do(t, http.MethodGet, "/scan/runs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f = newFixture(t, func(o *Options) { o.Outcomes = nil })
	rec = f.do(t, http.MethodGet, "/scan/runs/"+runID, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClientLimiter_PerClient(t *testing.T) {
	l := newClientLimiter(rate.Every(time.Hour), 1)

	assert.True(t, l.allow("a", now))
	assert.False(t, l.allow("a", now))
	assert.True(t, l.allow("b", now))

	// Idle buckets are evicted
	assert.True(t, l.allow("a", now.Add(2*time.Hour)))
}
