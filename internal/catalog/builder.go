package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reflex-tools/rxdocs/internal/db"
	"github.com/reflex-tools/rxdocs/internal/docs"
)

// Builder runs full rebuilds of the component and doc section catalogs from
// a tree of markdown files.
type Builder struct {
	db   *db.DB
	root string
	exts map[string]bool
}

func NewBuilder(database *db.DB, root string, extensions []string) *Builder {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Builder{db: database, root: root, exts: exts}
}

// Summary reports what a rebuild ingested.
type Summary struct {
	Components  int
	DocSections int
	Skipped     int
}

// Rebuild replaces both catalogs inside one transaction. Component pages
// under root/library are ingested first, then every other markdown file in
// the tree becomes a doc section. Unreadable or uncatalogable files are
// reported through progress and skipped; storage failures abort the rebuild
// and leave the previous catalog in place.
func (b *Builder) Rebuild(progress func(string)) (Summary, error) {
	if progress == nil {
		progress = func(string) {}
	}

	var summary Summary

	if _, err := os.Stat(b.root); err != nil {
		return summary, fmt.Errorf("docs root: %w", err)
	}

	rebuild, err := b.db.BeginRebuild()
	if err != nil {
		return summary, err
	}
	defer rebuild.Rollback()

	libraryRoot := filepath.Join(b.root, "library")
	if _, err := os.Stat(libraryRoot); err == nil {
		walkErr := b.walkMarkdown(libraryRoot, false, func(path string) {
			b.addComponent(rebuild, path, &summary, progress)
		})
		if walkErr != nil {
			return summary, fmt.Errorf("walking %s: %w", libraryRoot, walkErr)
		}
	}

	walkErr := b.walkMarkdown(b.root, true, func(path string) {
		b.addDocSection(rebuild, path, &summary, progress)
	})
	if walkErr != nil {
		return summary, fmt.Errorf("walking %s: %w", b.root, walkErr)
	}

	if err := rebuild.SetMeta(db.MetaLastRebuild, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return summary, err
	}
	if err := rebuild.SetMeta(db.MetaDocsRoot, b.root); err != nil {
		return summary, err
	}
	if err := rebuild.Commit(); err != nil {
		return summary, err
	}
	return summary, nil
}

// walkMarkdown visits every markdown file under root in lexical order, which
// keeps rebuild order, and therefore collision renames, deterministic.
func (b *Builder) walkMarkdown(root string, skipLibrary bool, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipLibrary && d.Name() == "library" {
				return filepath.SkipDir
			}
			return nil
		}
		if !b.exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		visit(path)
		return nil
	})
}

func (b *Builder) addComponent(rebuild *db.Rebuild, path string, summary *Summary, progress func(string)) {
	content, err := os.ReadFile(path)
	if err != nil {
		b.skip(path, err, summary, progress)
		return
	}

	draft := docs.ExtractComponent(string(content), path)
	name, err := rebuild.ClaimComponentName(draft.Name, draft.Classification)
	if err != nil {
		b.skip(path, err, summary, progress)
		return
	}

	err = rebuild.InsertComponent(&db.Component{
		Name:        name,
		Category:    draft.Classification,
		FilePath:    path,
		Content:     string(content),
		Description: draft.Description,
	})
	if err != nil {
		b.skip(path, err, summary, progress)
		return
	}
	summary.Components++
	progress(fmt.Sprintf("component %s (%s)", name, draft.Classification))
}

func (b *Builder) addDocSection(rebuild *db.Rebuild, path string, summary *Summary, progress func(string)) {
	content, err := os.ReadFile(path)
	if err != nil {
		b.skip(path, err, summary, progress)
		return
	}

	draft := docs.ExtractSection(string(content), path)
	name, err := rebuild.ClaimDocSectionName(draft.Name, draft.Classification)
	if err != nil {
		b.skip(path, err, summary, progress)
		return
	}

	err = rebuild.InsertDocSection(&db.DocSection{
		Name:        name,
		Section:     draft.Classification,
		FilePath:    path,
		Content:     string(content),
		Description: draft.Description,
	})
	if err != nil {
		b.skip(path, err, summary, progress)
		return
	}
	summary.DocSections++
	progress(fmt.Sprintf("doc %s (%s)", name, draft.Classification))
}

func (b *Builder) skip(path string, err error, summary *Summary, progress func(string)) {
	summary.Skipped++
	progress(fmt.Sprintf("skipped %s: %v", path, err))
}
