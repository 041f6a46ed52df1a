package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Meta keys recorded by a catalog rebuild.
const (
	MetaLastRebuild = "last_rebuild_at"
	MetaDocsRoot    = "docs_root"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS components (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			file_path TEXT NOT NULL,
			content TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_components_name ON components (name)`,
		`CREATE INDEX IF NOT EXISTS idx_components_category ON components (category)`,

		`CREATE TABLE IF NOT EXISTS doc_sections (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			section TEXT NOT NULL,
			file_path TEXT NOT NULL,
			content TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_doc_sections_name ON doc_sections (name)`,
		`CREATE INDEX IF NOT EXISTS idx_doc_sections_section ON doc_sections (section)`,

		`CREATE TABLE IF NOT EXISTS catalog_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Records ---

type Component struct {
	ID          int
	Name        string
	Category    string
	FilePath    string
	Content     string
	Description string
	CreatedAt   time.Time
}

type DocSection struct {
	ID          int
	Name        string
	Section     string
	FilePath    string
	Content     string
	Description string
	CreatedAt   time.Time
}

// ComponentSummary is the list projection: everything but the page content.
type ComponentSummary struct {
	Name        string
	Category    string
	Description string
}

type DocSectionSummary struct {
	Name        string
	Section     string
	Description string
}

// --- Rebuild transaction ---

// Rebuild is the transaction a full catalog rebuild runs inside. Beginning it
// clears both catalogs; readers keep seeing the previous catalog until Commit.
// Name claims are tracked in memory for the lifetime of the rebuild, with the
// unique indexes as the backstop.
type Rebuild struct {
	tx             *sql.Tx
	componentNames map[string]bool
	docNames       map[string]bool
}

func (db *DB) BeginRebuild() (*Rebuild, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning rebuild: %w", err)
	}
	for _, table := range []string{"components", "doc_sections"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return &Rebuild{
		tx:             tx,
		componentNames: make(map[string]bool),
		docNames:       make(map[string]bool),
	}, nil
}

// ClaimComponentName reserves name for this rebuild. A duplicate is renamed
// exactly once by appending the category; a rename that is itself taken is an
// error for the caller to skip.
func (r *Rebuild) ClaimComponentName(name, category string) (string, error) {
	return claimName(r.componentNames, name, category)
}

// ClaimDocSectionName is ClaimComponentName for the doc section catalog,
// renaming with the section.
func (r *Rebuild) ClaimDocSectionName(name, section string) (string, error) {
	return claimName(r.docNames, name, section)
}

func claimName(seen map[string]bool, name, classification string) (string, error) {
	if !seen[name] {
		seen[name] = true
		return name, nil
	}
	renamed := name + "_" + classification
	if seen[renamed] {
		return "", fmt.Errorf("name %q already cataloged, as is %q", name, renamed)
	}
	seen[renamed] = true
	return renamed, nil
}

func (r *Rebuild) InsertComponent(c *Component) error {
	result, err := r.tx.Exec(
		`INSERT INTO components (name, category, file_path, content, description) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Category, c.FilePath, c.Content, c.Description,
	)
	if err != nil {
		return fmt.Errorf("inserting component %q: %w", c.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting component id: %w", err)
	}
	c.ID = int(id)
	return nil
}

func (r *Rebuild) InsertDocSection(d *DocSection) error {
	result, err := r.tx.Exec(
		`INSERT INTO doc_sections (name, section, file_path, content, description) VALUES (?, ?, ?, ?, ?)`,
		d.Name, d.Section, d.FilePath, d.Content, d.Description,
	)
	if err != nil {
		return fmt.Errorf("inserting doc section %q: %w", d.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting doc section id: %w", err)
	}
	d.ID = int(id)
	return nil
}

func (r *Rebuild) SetMeta(key, value string) error {
	_, err := r.tx.Exec(
		`INSERT INTO catalog_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting meta %s: %w", key, err)
	}
	return nil
}

func (r *Rebuild) Commit() error {
	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}
	return nil
}

// Rollback abandons the rebuild. Calling it after a successful Commit is a
// no-op, so callers can defer it.
func (r *Rebuild) Rollback() error {
	if err := r.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

// --- Component operations ---

func (db *DB) GetComponent(name string) (*Component, error) {
	var c Component
	err := db.conn.QueryRow(
		`SELECT id, name, category, file_path, content, description, created_at FROM components WHERE name = ?`,
		name,
	).Scan(&c.ID, &c.Name, &c.Category, &c.FilePath, &c.Content, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComponents returns component summaries ordered by name. A non-empty
// category filters by case-insensitive substring match.
func (db *DB) ListComponents(category string) ([]ComponentSummary, error) {
	query := `SELECT name, category, description FROM components`
	var params []interface{}
	if category != "" {
		query += ` WHERE category LIKE '%' || ? || '%'`
		params = append(params, category)
	}
	query += ` ORDER BY name`

	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []ComponentSummary
	for rows.Next() {
		var c ComponentSummary
		if err := rows.Scan(&c.Name, &c.Category, &c.Description); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func (db *DB) Categories() ([]string, error) {
	return db.distinct(`SELECT DISTINCT category FROM components ORDER BY category`)
}

// --- Doc section operations ---

func (db *DB) GetDocSection(name string) (*DocSection, error) {
	var d DocSection
	err := db.conn.QueryRow(
		`SELECT id, name, section, file_path, content, description, created_at FROM doc_sections WHERE name = ?`,
		name,
	).Scan(&d.ID, &d.Name, &d.Section, &d.FilePath, &d.Content, &d.Description, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *DB) ListDocSections(section string) ([]DocSectionSummary, error) {
	query := `SELECT name, section, description FROM doc_sections`
	var params []interface{}
	if section != "" {
		query += ` WHERE section LIKE '%' || ? || '%'`
		params = append(params, section)
	}
	query += ` ORDER BY name`

	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []DocSectionSummary
	for rows.Next() {
		var d DocSectionSummary
		if err := rows.Scan(&d.Name, &d.Section, &d.Description); err != nil {
			return nil, err
		}
		sections = append(sections, d)
	}
	return sections, rows.Err()
}

func (db *DB) Sections() ([]string, error) {
	return db.distinct(`SELECT DISTINCT section FROM doc_sections ORDER BY section`)
}

// --- Status support ---

func (db *DB) Counts() (components, docSections int, err error) {
	if err = db.conn.QueryRow(`SELECT COUNT(*) FROM components`).Scan(&components); err != nil {
		return 0, 0, err
	}
	if err = db.conn.QueryRow(`SELECT COUNT(*) FROM doc_sections`).Scan(&docSections); err != nil {
		return 0, 0, err
	}
	return components, docSections, nil
}

// Meta returns the stored value for key, or "" when the key was never set.
func (db *DB) Meta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM catalog_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (db *DB) distinct(query string) ([]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
