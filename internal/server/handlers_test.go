package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
	"github.com/Miyazak1/linklore-sub001/internal/cache"
	"github.com/Miyazak1/linklore-sub001/internal/config"
	"github.com/Miyazak1/linklore-sub001/internal/consensus"
	"github.com/Miyazak1/linklore-sub001/internal/embedding"
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/pairs"
	"github.com/Miyazak1/linklore-sub001/internal/quality"
	"github.com/Miyazak1/linklore-sub001/internal/similarity"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

type staticResolver struct{ creds *ai.Credentials }

func (r staticResolver) Resolve(ctx context.Context) (*ai.Credentials, error) { return r.creds, nil }
func (r staticResolver) Default() *ai.Credentials { return r.creds }

type cannedChat struct{ reply string }

func (c cannedChat) Chat(ctx context.Context, creds *ai.Credentials, messages []ai.Message, opts ai.ChatOptions) (string, error) {
	return c.reply, nil
}

func newTestServer(t *testing.T) (*Server, *storage.SQLiteStorage) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{Storage: config.StorageConfig{DatabasePath: dbPath}}
	config.ApplyDefaults(cfg)

	resolver := staticResolver{creds: &ai.Credentials{Provider: "openai", APIKey: "sk-test"}}
	chat := cannedChat{reply: `{"consensus":[{"text":"shared","supportCount":2,"docIds":["d1","d2"]}],"disagreements":[]}`}
	gate := quality.NewGate(&cfg.Quality)
	sim := similarity.NewService(cache.NewMemoryCache(100), embedding.NewMockEmbedder(16), chat, resolver)
	tracker := consensus.NewTopicTracker(store, gate, consensus.WithConfig(&cfg.Consensus))
	analyzer := consensus.NewPairAnalyzer(store, gate, sim, chat, resolver, consensus.WithConfig(&cfg.Consensus))
	srv := NewServer(tracker, analyzer, pairs.NewIdentifier(store, nil), sim, store, cfg, nil)
	return srv, store
}

func seedTopic(t *testing.T, store *storage.SQLiteStorage) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	scores := map[string]float64{"viewpoint": 8, "logic": 8, "evidence": 8, "structure": 7, "language": 7, "innovation": 6}
	parent := "d1"
	docs := []*models.Document{
		{ID: "d1", TopicID: "t1", AuthorID: "alice", CreatedAt: base},
		{ID: "d2", TopicID: "t1", AuthorID: "bob", ParentID: &parent, CreatedAt: base.Add(time.Minute)},
	}
	claims := [][]string{{"AI改善教育", "shared"}, {"AI提升效率", "shared"}}
	for i, d := range docs {
		if err := store.CreateDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
		if err := store.AddEvaluation(ctx, &models.Evaluation{DocumentID: d.ID, Scores: scores, CreatedAt: d.CreatedAt}); err != nil {
			t.Fatal(err)
		}
		if err := store.AddSummary(ctx, &models.Summary{DocumentID: d.ID, Claims: claims[i], CreatedAt: d.CreatedAt}); err != nil {
			t.Fatal(err)
		}
	}
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

func TestConsensusEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	seedTopic(t, store)

	w := do(t, srv, http.MethodGet, "/api/v1/topics/t1/consensus", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("latest before tracking: status %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/topics/t1/consensus", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("track: status %d body %s", w.Code, w.Body.String())
	}
	var snap models.ConsensusSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.ConsensusScore == nil || snap.Data.ClaimCount != 4 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Data.KeyPoints) != 1 || snap.Data.KeyPoints[0] != "shared" {
		t.Errorf("key points = %v", snap.Data.KeyPoints)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/topics/t1/consensus", nil)
	if w.Code != http.StatusOK {
		t.Errorf("latest: status %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/topics/t1/consensus/history?limit=10", nil)
	var history struct {
		Snapshots []models.ConsensusSnapshot `json:"snapshots"`
	}
	if err := json.NewDecoder(w.Body).Decode(&history); err != nil {
		t.Fatal(err)
	}
	if len(history.Snapshots) != 1 {
		t.Errorf("history = %d snapshots", len(history.Snapshots))
	}

	w = do(t, srv, http.MethodGet, "/api/v1/topics/t1/consensus/history?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status %d", w.Code)
	}
}

func TestPairEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	seedTopic(t, store)

	w := do(t, srv, http.MethodGet, "/api/v1/topics/t1/pairs", nil)
	var listed struct {
		Pairs []models.UserPair `json:"pairs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Pairs) != 1 || listed.Pairs[0].User1ID != "alice" {
		t.Errorf("pairs = %+v", listed.Pairs)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/topics/t1/pairs/bob/alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("pair before analysis: status %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/topics/t1/pairs/analyze", analyzePairRequest{UserA: "bob"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing user_b: status %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/topics/t1/pairs/analyze", analyzePairRequest{UserA: "bob", UserB: "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: status %d body %s", w.Code, w.Body.String())
	}
	var res models.PairResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if !res.Measured || len(res.Consensus) != 1 {
		t.Errorf("result = %+v", res)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/topics/t1/pairs/bob/alice", nil)
	if w.Code != http.StatusOK {
		t.Errorf("pair after analysis: status %d", w.Code)
	}
	w = do(t, srv, http.MethodGet, "/api/v1/topics/t1/pairs/analyzed", nil)
	var records struct {
		Pairs []models.UserConsensus `json:"pairs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if len(records.Pairs) != 1 || records.Pairs[0].Version != 1 {
		t.Errorf("records = %+v", records.Pairs)
	}
}

func TestSimilarityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/similarity", similarityRequest{Text1: "same", Text2: "same"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out struct {
		Score    float64 `json:"score"`
		Strategy string  `json:"strategy"`
		Measured bool    `json:"measured"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Strategy != similarity.StrategyEmbedding || !out.Measured || out.Score < 0.999 {
		t.Errorf("similarity = %+v", out)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/similarity", similarityRequest{Text1: "", Text2: "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty text: status %d", w.Code)
	}
}

func TestHealthAndStatus(t *testing.T) {
	srv, store := newTestServer(t)
	seedTopic(t, store)

	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health: status %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var out struct {
		Counts storage.Stats          `json:"counts"`
		Config map[string]interface{} `json:"config"`
		Disk   int64                  `json:"disk_usage_bytes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Counts.Documents != 2 || out.Counts.Summaries != 2 {
		t.Errorf("counts = %+v", out.Counts)
	}
	if out.Disk <= 0 {
		t.Errorf("disk usage = %d", out.Disk)
	}
	if out.Config["cache_backend"] != "memory" {
		t.Errorf("config = %v", out.Config)
	}
}
