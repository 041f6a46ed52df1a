package rpc

import "time"

// RebuildResult summarizes a finished catalog rebuild.
type RebuildResult struct {
	Components  int    `json:"components"`
	DocSections int    `json:"doc_sections"`
	Skipped     int    `json:"skipped"`
	Error       string `json:"error,omitempty"`
}

// ProgressLine is a single line of NDJSON streamed from the rebuild endpoint.
type ProgressLine struct {
	Type    string         `json:"type"` // "progress" or "result"
	Message string         `json:"message,omitempty"`
	Result  *RebuildResult `json:"result,omitempty"`
}

// GetComponentRequest is the request body for POST /component.
type GetComponentRequest struct {
	Name string `json:"name"`
}

// ComponentResponse is the response body for POST /component.
type ComponentResponse struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	FilePath    string    `json:"file_path"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetDocRequest is the request body for POST /doc.
type GetDocRequest struct {
	Name string `json:"name"`
}

// DocSectionResponse is the response body for POST /doc.
type DocSectionResponse struct {
	Name        string    `json:"name"`
	Section     string    `json:"section"`
	FilePath    string    `json:"file_path"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListComponentsRequest is the request body for POST /components.
type ListComponentsRequest struct {
	Category string `json:"category,omitempty"`
}

// ListComponentsResponse is the response body for POST /components.
type ListComponentsResponse struct {
	Components []ComponentSummary `json:"components"`
}

type ComponentSummary struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// ListDocsRequest is the request body for POST /docs.
type ListDocsRequest struct {
	Section string `json:"section,omitempty"`
}

// ListDocsResponse is the response body for POST /docs.
type ListDocsResponse struct {
	DocSections []DocSectionSummary `json:"doc_sections"`
}

type DocSectionSummary struct {
	Name        string `json:"name"`
	Section     string `json:"section"`
	Description string `json:"description,omitempty"`
}

// CategoriesResponse is the response body for GET /categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// SectionsResponse is the response body for GET /sections.
type SectionsResponse struct {
	Sections []string `json:"sections"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Components    int    `json:"components"`
	DocSections   int    `json:"doc_sections"`
	Categories    int    `json:"categories"`
	Sections      int    `json:"sections"`
	LastRebuildAt string `json:"last_rebuild_at,omitempty"`
	DocsRoot      string `json:"docs_root,omitempty"`
	DBPath        string `json:"db_path"`
}
