package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reflex-tools/rxdocs/internal/catalog"
	"github.com/reflex-tools/rxdocs/internal/config"
	"github.com/reflex-tools/rxdocs/internal/db"
	"github.com/reflex-tools/rxdocs/internal/rpc"
	"golang.org/x/sync/singleflight"
)

type Server struct {
	db         *db.DB
	builder    *catalog.Builder
	cfg        *config.Config
	dbPath     string
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	rebuildGroup singleflight.Group
}

func NewServer(cfg *config.Config, database *db.DB, dbPath, socketPath string) *Server {
	expSec := cfg.Daemon.ExpirationSeconds
	if expSec <= 0 {
		expSec = 600
	}

	return &Server{
		db:         database,
		builder:    catalog.NewBuilder(database, cfg.Docs.Root, cfg.Docs.Extensions),
		cfg:        cfg,
		dbPath:     dbPath,
		socketPath: socketPath,
		expiration: time.Duration(expSec) * time.Second,
	}
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	s.httpServer = &http.Server{Handler: s.routes()}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rebuild", s.withExpReset(s.handleRebuild))
	mux.HandleFunc("POST /component", s.withExpReset(s.handleGetComponent))
	mux.HandleFunc("POST /doc", s.withExpReset(s.handleGetDocSection))
	mux.HandleFunc("POST /components", s.withExpReset(s.handleListComponents))
	mux.HandleFunc("POST /docs", s.withExpReset(s.handleListDocSections))
	mux.HandleFunc("GET /categories", s.withExpReset(s.handleCategories))
	mux.HandleFunc("GET /sections", s.withExpReset(s.handleSections))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	return mux
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		log.Printf("daemon: db close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	os.Exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		if line.Message != "" {
			log.Printf("daemon: %s", line.Message)
		}
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	progress := func(msg string) {
		send(rpc.ProgressLine{Type: "progress", Message: msg})
	}
	result := s.rebuild(progress)
	send(rpc.ProgressLine{Type: "result", Result: &result})
}

// rebuild collapses concurrent requests onto one build. Followers share the
// first caller's result; only that caller sees the progress stream.
func (s *Server) rebuild(progress func(string)) rpc.RebuildResult {
	v, _, _ := s.rebuildGroup.Do("rebuild", func() (interface{}, error) {
		var result rpc.RebuildResult
		summary, err := s.builder.Rebuild(progress)
		result.Components = summary.Components
		result.DocSections = summary.DocSections
		result.Skipped = summary.Skipped
		if err != nil {
			result.Error = err.Error()
		}
		return result, nil
	})
	return v.(rpc.RebuildResult)
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	var req rpc.GetComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}

	component, err := s.db.GetComponent(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if component == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("component %q not found", req.Name))
		return
	}

	writeJSON(w, http.StatusOK, rpc.ComponentResponse{
		Name:        component.Name,
		Category:    component.Category,
		FilePath:    component.FilePath,
		Description: component.Description,
		Content:     component.Content,
		CreatedAt:   component.CreatedAt,
	})
}

func (s *Server) handleGetDocSection(w http.ResponseWriter, r *http.Request) {
	var req rpc.GetDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}

	section, err := s.db.GetDocSection(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if section == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("doc section %q not found", req.Name))
		return
	}

	writeJSON(w, http.StatusOK, rpc.DocSectionResponse{
		Name:        section.Name,
		Section:     section.Section,
		FilePath:    section.FilePath,
		Description: section.Description,
		Content:     section.Content,
		CreatedAt:   section.CreatedAt,
	})
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	var req rpc.ListComponentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	components, err := s.db.ListComponents(req.Category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := rpc.ListComponentsResponse{Components: make([]rpc.ComponentSummary, len(components))}
	for i, c := range components {
		resp.Components[i] = rpc.ComponentSummary{
			Name:        c.Name,
			Category:    c.Category,
			Description: c.Description,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDocSections(w http.ResponseWriter, r *http.Request) {
	var req rpc.ListDocsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sections, err := s.db.ListDocSections(req.Section)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := rpc.ListDocsResponse{DocSections: make([]rpc.DocSectionSummary, len(sections))}
	for i, d := range sections {
		resp.DocSections[i] = rpc.DocSectionSummary{
			Name:        d.Name,
			Section:     d.Section,
			Description: d.Description,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.db.Categories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rpc.CategoriesResponse{Categories: categories})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.db.Sections()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rpc.SectionsResponse{Sections: sections})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	components, docSections, err := s.db.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	categories, err := s.db.Categories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sections, err := s.db.Sections()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lastRebuild, err := s.db.Meta(db.MetaLastRebuild)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docsRoot, err := s.db.Meta(db.MetaDocsRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rpc.StatusResponse{
		Components:    components,
		DocSections:   docSections,
		Categories:    len(categories),
		Sections:      len(sections),
		LastRebuildAt: lastRebuild,
		DocsRoot:      docsRoot,
		DBPath:        s.dbPath,
	})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		os.Exit(0)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
