package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reflex-tools/rxdocs/internal/config"
	"github.com/reflex-tools/rxdocs/internal/db"
	"github.com/reflex-tools/rxdocs/internal/rpc"
)

func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()

	dir := t.TempDir()
	root := filepath.Join(dir, "reflex_docs")
	writeDocs(t, root, map[string]string{
		"library/buttons/icon_button.md":  "# IconButton\n\nA button with an icon.\n",
		"library/forms/input.md":          "# Input\n\nA text input.\n",
		"getting_started/installation.md": "# Installation\n\nHow to install.\n",
		"index.md":                        "# Overview\n\nThe docs.\n",
	})

	dbPath := filepath.Join(dir, "catalog.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{
		Docs: config.DocsConfig{
			Root:       root,
			Extensions: []string{".md"},
		},
		Daemon: config.DaemonConfig{ExpirationSeconds: 600},
	}

	srv := NewServer(cfg, database, dbPath, filepath.Join(dir, "daemon.sock"))
	return srv, srv.routes()
}

func writeDocs(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string, body interface{}, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("%s %s = %d, want %d (%s)", method, path, rec.Code, wantStatus, rec.Body.String())
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// rebuildCatalog runs a rebuild through the handler and returns the final
// result line from the stream.
func rebuildCatalog(t *testing.T, mux *http.ServeMux) rpc.RebuildResult {
	t.Helper()
	rec := doRequest(t, mux, "POST", "/rebuild", nil, http.StatusOK)

	var result *rpc.RebuildResult
	dec := json.NewDecoder(rec.Body)
	for dec.More() {
		var line rpc.ProgressLine
		if err := dec.Decode(&line); err != nil {
			t.Fatalf("decoding progress line: %v", err)
		}
		if line.Type == "result" {
			result = line.Result
		}
	}
	if result == nil {
		t.Fatalf("stream ended without a result line")
	}
	return *result
}

func TestHandleRebuild(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doRequest(t, mux, "POST", "/rebuild", nil, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q, want application/x-ndjson", ct)
	}

	var progress []string
	var result *rpc.RebuildResult
	dec := json.NewDecoder(rec.Body)
	for dec.More() {
		var line rpc.ProgressLine
		if err := dec.Decode(&line); err != nil {
			t.Fatalf("decoding progress line: %v", err)
		}
		switch line.Type {
		case "progress":
			progress = append(progress, line.Message)
		case "result":
			result = line.Result
		default:
			t.Errorf("unexpected line type %q", line.Type)
		}
	}

	if len(progress) == 0 {
		t.Error("expected progress lines before the result")
	}
	if result == nil {
		t.Fatal("expected a final result line")
	}
	if result.Components != 2 || result.DocSections != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 2 components, 2 doc sections, 0 skipped", result)
	}
	if result.Error != "" {
		t.Errorf("unexpected rebuild error %q", result.Error)
	}
}

func TestHandleGetComponent(t *testing.T) {
	srv, mux := newTestServer(t)
	rebuildCatalog(t, mux)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, mux, "POST", "/component", rpc.GetComponentRequest{Name: "IconButton"}, http.StatusOK)
		var resp rpc.ComponentResponse
		decodeBody(t, rec, &resp)
		if resp.Name != "IconButton" {
			t.Errorf("name = %q, want IconButton", resp.Name)
		}
		if resp.Category != "Buttons" {
			t.Errorf("category = %q, want Buttons", resp.Category)
		}
		if resp.Description != "A button with an icon." {
			t.Errorf("description = %q", resp.Description)
		}
		if !strings.Contains(resp.Content, "# IconButton") {
			t.Errorf("content missing heading: %q", resp.Content)
		}
		want := filepath.Join(srv.cfg.Docs.Root, "library", "buttons", "icon_button.md")
		if resp.FilePath != want {
			t.Errorf("file path = %q, want %q", resp.FilePath, want)
		}
		if resp.CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		rec := doRequest(t, mux, "POST", "/component", rpc.GetComponentRequest{Name: "Nope"}, http.StatusNotFound)
		var resp map[string]string
		decodeBody(t, rec, &resp)
		if !strings.Contains(resp["error"], `component "Nope" not found`) {
			t.Errorf("error = %q", resp["error"])
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		doRequest(t, mux, "POST", "/component", rpc.GetComponentRequest{}, http.StatusBadRequest)
	})

	t.Run("bad_json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/component", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandleGetDocSection(t *testing.T) {
	_, mux := newTestServer(t)
	rebuildCatalog(t, mux)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, mux, "POST", "/doc", rpc.GetDocRequest{Name: "Installation"}, http.StatusOK)
		var resp rpc.DocSectionResponse
		decodeBody(t, rec, &resp)
		if resp.Name != "Installation" {
			t.Errorf("name = %q, want Installation", resp.Name)
		}
		if resp.Section != "Getting Started" {
			t.Errorf("section = %q, want Getting Started", resp.Section)
		}
		if resp.Description != "How to install." {
			t.Errorf("description = %q", resp.Description)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		rec := doRequest(t, mux, "POST", "/doc", rpc.GetDocRequest{Name: "Nope"}, http.StatusNotFound)
		var resp map[string]string
		decodeBody(t, rec, &resp)
		if !strings.Contains(resp["error"], `doc section "Nope" not found`) {
			t.Errorf("error = %q", resp["error"])
		}
	})
}

func TestHandleListComponents(t *testing.T) {
	_, mux := newTestServer(t)
	rebuildCatalog(t, mux)

	t.Run("all_sorted", func(t *testing.T) {
		rec := doRequest(t, mux, "POST", "/components", rpc.ListComponentsRequest{}, http.StatusOK)
		var resp rpc.ListComponentsResponse
		decodeBody(t, rec, &resp)
		if len(resp.Components) != 2 {
			t.Fatalf("got %d components, want 2", len(resp.Components))
		}
		if resp.Components[0].Name != "IconButton" || resp.Components[1].Name != "Input" {
			t.Errorf("components = %+v, want IconButton then Input", resp.Components)
		}
	})

	t.Run("category_filter", func(t *testing.T) {
		rec := doRequest(t, mux, "POST", "/components", rpc.ListComponentsRequest{Category: "butt"}, http.StatusOK)
		var resp rpc.ListComponentsResponse
		decodeBody(t, rec, &resp)
		if len(resp.Components) != 1 || resp.Components[0].Name != "IconButton" {
			t.Errorf("components = %+v, want only IconButton", resp.Components)
		}
	})
}

func TestHandleListDocSections(t *testing.T) {
	_, mux := newTestServer(t)
	rebuildCatalog(t, mux)

	rec := doRequest(t, mux, "POST", "/docs", rpc.ListDocsRequest{Section: "getting"}, http.StatusOK)
	var resp rpc.ListDocsResponse
	decodeBody(t, rec, &resp)
	if len(resp.DocSections) != 1 || resp.DocSections[0].Name != "Installation" {
		t.Errorf("doc sections = %+v, want only Installation", resp.DocSections)
	}
}

func TestHandleCategoriesAndSections(t *testing.T) {
	_, mux := newTestServer(t)
	rebuildCatalog(t, mux)

	rec := doRequest(t, mux, "GET", "/categories", nil, http.StatusOK)
	var cats rpc.CategoriesResponse
	decodeBody(t, rec, &cats)
	if len(cats.Categories) != 2 || cats.Categories[0] != "Buttons" || cats.Categories[1] != "Forms" {
		t.Errorf("categories = %v, want [Buttons Forms]", cats.Categories)
	}

	rec = doRequest(t, mux, "GET", "/sections", nil, http.StatusOK)
	var secs rpc.SectionsResponse
	decodeBody(t, rec, &secs)
	if len(secs.Sections) != 2 || secs.Sections[0] != "Getting Started" || secs.Sections[1] != "Other" {
		t.Errorf("sections = %v, want [Getting Started Other]", secs.Sections)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, mux := newTestServer(t)

	t.Run("before_rebuild", func(t *testing.T) {
		rec := doRequest(t, mux, "GET", "/status", nil, http.StatusOK)
		var resp rpc.StatusResponse
		decodeBody(t, rec, &resp)
		if resp.Components != 0 || resp.DocSections != 0 {
			t.Errorf("counts = %d/%d, want 0/0", resp.Components, resp.DocSections)
		}
		if resp.LastRebuildAt != "" {
			t.Errorf("last rebuild = %q, want empty", resp.LastRebuildAt)
		}
	})

	t.Run("after_rebuild", func(t *testing.T) {
		rebuildCatalog(t, mux)
		rec := doRequest(t, mux, "GET", "/status", nil, http.StatusOK)
		var resp rpc.StatusResponse
		decodeBody(t, rec, &resp)
		if resp.Components != 2 || resp.DocSections != 2 {
			t.Errorf("counts = %d/%d, want 2/2", resp.Components, resp.DocSections)
		}
		if resp.Categories != 2 || resp.Sections != 2 {
			t.Errorf("classifications = %d/%d, want 2/2", resp.Categories, resp.Sections)
		}
		if resp.LastRebuildAt == "" {
			t.Error("expected last rebuild timestamp")
		}
		if resp.DocsRoot != srv.cfg.Docs.Root {
			t.Errorf("docs root = %q, want %q", resp.DocsRoot, srv.cfg.Docs.Root)
		}
		if resp.DBPath != srv.dbPath {
			t.Errorf("db path = %q, want %q", resp.DBPath, srv.dbPath)
		}
	})
}

func TestMethodNotAllowed(t *testing.T) {
	_, mux := newTestServer(t)

	req := httptest.NewRequest("GET", "/component", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
