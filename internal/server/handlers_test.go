package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/functions"
	"github.com/hyperjump/docqa/internal/index"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/retrieval"
	"github.com/hyperjump/docqa/internal/storage"
)

type fakeRebuilds struct {
	notified  atomic.Int32
	triggered atomic.Int32
}

func (f *fakeRebuilds) Notify()       { f.notified.Add(1) }
func (f *fakeRebuilds) TriggerNow()   { f.triggered.Add(1) }
func (f *fakeRebuilds) Builds() int64 { return int64(f.triggered.Load()) }

type echoQA struct{}

func (echoQA) Ask(_ context.Context, req models.AskRequest) (*models.AskResponse, error) {
	if err := req.Validate(0); err != nil {
		return nil, err
	}
	return &models.AskResponse{Question: req.Question, Answer: "echo: " + req.Question, Strategy: "direct", Sources: []models.Source{}}, nil
}

type selectHash struct{}

func (selectHash) Select(context.Context, string) (embedding.Embedder, error) {
	return embedding.NewHashEmbedder(64), nil
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	rebuilds *fakeRebuilds
	docs     string
	uploads  string
	store    *storage.SQLiteStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "documents")
	uploads := filepath.Join(dir, "uploaded_docs")
	if err := os.MkdirAll(filepath.Join(docs, "policies"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, "policies", "leave.txt"), []byte("Employees receive twenty vacation days each year."), 0644); err != nil {
		t.Fatal(err)
	}

	corpus := &config.CorpusConfig{
		Roots:       []config.RootConfig{{Name: "default", Path: docs}, {Name: "uploaded", Path: uploads}},
		UploadRoot:  "uploaded",
		Extensions:  config.DefaultExtensions,
		MaxUploadMB: 1,
	}
	scanner := indexer.NewScanner(extract.NewExtractor(), corpus.Extensions)
	builder := index.NewBuilder(
		[]index.Root{{Name: "default", Path: docs}, {Name: "uploaded", Path: uploads}},
		scanner, indexer.NewChunker(300, 30, 50), selectHash{},
	)
	snap, err := builder.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	idx := index.NewStore()
	idx.Publish(snap)

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	fns := functions.NewRegistry()
	if err := functions.RegisterBuiltins(fns); err != nil {
		t.Fatal(err)
	}

	rebuilds := &fakeRebuilds{}
	srv := NewServer(Deps{
		QA:        echoQA{},
		Retriever: retrieval.New(idx),
		Index:     idx,
		Rebuilds:  rebuilds,
		Storage:   store,
		Lister:    scanner,
		Corpus:    corpus,
		Functions: fns,
	}, &config.ServerConfig{Host: "localhost", Port: 8080})
	return &testEnv{srv: srv, handler: srv.Handler(), rebuilds: rebuilds, docs: docs, uploads: uploads, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func uploadBody(t *testing.T, folder, filename string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Status       string `json:"status"`
		Ready        bool   `json:"ready"`
		TotalChunks  int    `json:"total_chunks"`
		TotalFolders int    `json:"total_folders"`
		Functions    struct {
			Enabled bool `json:"enabled"`
			Total   int  `json:"total"`
		} `json:"functions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "ok" || !out.Ready || out.TotalChunks != 1 || out.TotalFolders != 1 {
		t.Errorf("health: got %+v", out)
	}
	if !out.Functions.Enabled || out.Functions.Total != env.srv.functions.Len() || out.Functions.Total == 0 {
		t.Errorf("health functions: got %+v", out.Functions)
	}
}

func TestHandleAsk(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/ask", []byte(`{"question":"How many days?"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var out models.AskResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer != "echo: How many days?" {
		t.Errorf("answer: got %q", out.Answer)
	}

	for _, body := range []string{`{"question":""}`, `{"question":"` + strings.Repeat("x", 1001) + `"}`, `not json`} {
		w := env.do(t, http.MethodPost, "/api/v1/ask", []byte(body), "application/json")
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %.20q: status got %d, want 400", body, w.Code)
		}
	}
}

func TestHandleRetrieve(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/retrieve", []byte(`{"query":"vacation days","top_folders":1,"top_chunks":2}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var out models.RetrieveResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Results[0].Folder != "policies" || out.Results[0].Root != "default" {
		t.Errorf("results: got %+v", out.Results)
	}

	w = env.do(t, http.MethodPost, "/api/v1/retrieve", []byte(`{"query":"  "}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank query status: got %d", w.Code)
	}
}

func TestHandleReload(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/reload", nil, "")
	if w.Code != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", w.Code)
	}
	if env.rebuilds.triggered.Load() != 1 {
		t.Errorf("expected TriggerNow to be called once")
	}
}

func TestHandleStats(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/stats", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.IndexStatus
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Ready || out.TotalChunks != 1 || out.TotalFiles != 1 || out.Embedder != "hash" {
		t.Errorf("stats: got %+v", out)
	}
	if _, ok := out.Folders["default/policies"]; !ok {
		t.Errorf("folders: got %v", out.Folders)
	}
	if want := int64(len("Employees receive twenty vacation days each year.")); out.CorpusBytes != want {
		t.Errorf("corpus bytes: got %d, want %d", out.CorpusBytes, want)
	}
}

func TestHandleBuilds(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.RecordBuild(context.Background(), &storage.BuildRecord{Status: storage.BuildSucceeded, TotalChunks: 3}); err != nil {
		t.Fatal(err)
	}
	w := env.do(t, http.MethodGet, "/api/v1/builds?limit=5", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Builds []storage.BuildRecord `json:"builds"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Builds) != 1 || out.Builds[0].TotalChunks != 3 {
		t.Errorf("builds: got %+v", out.Builds)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/builds?limit=zero", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status: got %d", w.Code)
	}
}

func TestHandleUpload(t *testing.T) {
	env := newTestEnv(t)
	body, ct := uploadBody(t, "HR Policies!", "travel.txt", []byte("Travel needs approval."))
	w := env.do(t, http.MethodPost, "/api/v1/documents", body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var out models.UploadResult
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Folder != "HR_Policies" || out.Root != "uploaded" {
		t.Errorf("upload result: got %+v", out)
	}
	if _, err := os.Stat(filepath.Join(env.uploads, "HR_Policies", "travel.txt")); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}
	if env.rebuilds.notified.Load() != 1 {
		t.Errorf("expected Notify after upload")
	}

	// Same name again conflicts.
	body, ct = uploadBody(t, "HR Policies!", "travel.txt", []byte("again"))
	if w := env.do(t, http.MethodPost, "/api/v1/documents", body, ct); w.Code != http.StatusConflict {
		t.Errorf("duplicate status: got %d, want 409", w.Code)
	}
}

func TestHandleUpload_Rejections(t *testing.T) {
	env := newTestEnv(t)

	body, ct := uploadBody(t, "", "script.exe", []byte("MZ"))
	if w := env.do(t, http.MethodPost, "/api/v1/documents", body, ct); w.Code != http.StatusBadRequest {
		t.Errorf("unsupported extension status: got %d, want 400", w.Code)
	}

	body, ct = uploadBody(t, "", "big.txt", bytes.Repeat([]byte("a"), (1<<20)+10))
	if w := env.do(t, http.MethodPost, "/api/v1/documents", body, ct); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized status: got %d, want 413", w.Code)
	}

	if env.rebuilds.notified.Load() != 0 {
		t.Errorf("rejected uploads must not schedule a rebuild")
	}
}

func TestHandleUpload_DefaultFolder(t *testing.T) {
	env := newTestEnv(t)
	body, ct := uploadBody(t, "", "notes.md", []byte("# notes"))
	if w := env.do(t, http.MethodPost, "/api/v1/documents", body, ct); w.Code != http.StatusCreated {
		t.Fatalf("status: got %d", w.Code)
	}
	if _, err := os.Stat(filepath.Join(env.uploads, "general", "notes.md")); err != nil {
		t.Errorf("expected upload in general folder: %v", err)
	}
}

func TestHandleFolders(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/folders", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Folders []models.FolderListing `json:"folders"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Folders) != 1 || out.Folders[0].Folder != "policies" || out.Folders[0].Files[0] != "leave.txt" {
		t.Errorf("folders: got %+v", out.Folders)
	}
}

func TestHandleGetDocument(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/documents/default/policies/leave.txt", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "vacation days") {
		t.Errorf("body: got %q", w.Body.String())
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/documents/default/policies/missing.txt", http.StatusNotFound},
		{"/api/v1/documents/nope/policies/leave.txt", http.StatusNotFound},
		{"/api/v1/documents/default/../leave.txt", http.StatusForbidden},
	}
	for _, tt := range tests {
		if w := env.do(t, http.MethodGet, tt.path, nil, ""); w.Code != tt.want {
			t.Errorf("GET %s: got %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestSanitizeFolder(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"policies", "policies"},
		{"  HR Policies! ", "HR_Policies"},
		{"../../etc", "etc"},
		{"tech-docs_v2", "tech-docs_v2"},
		{"!!!", "general"},
		{"", "general"},
		{"社内 規程", "社内_規程"},
	}
	for _, tt := range tests {
		if got := SanitizeFolder(tt.in); got != tt.want {
			t.Errorf("SanitizeFolder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
