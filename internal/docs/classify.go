package docs

import (
	"path/filepath"
	"strings"
)

// Marker segments splitting a docs tree into the two catalogs: component
// pages live under library/, everything else is grouped by the directory
// after the reflex_docs root.
const (
	libraryMarker = "library"
	sectionMarker = "reflex_docs"

	defaultClassification = "Other"
)

// CategoryFromPath derives the component category from the path segment
// following the first library segment. Files sitting directly in the marker
// directory, or outside it, classify as Other.
func CategoryFromPath(path string) string {
	return classify(path, libraryMarker)
}

// SectionFromPath derives the doc section grouping from the path segment
// following the first reflex_docs segment.
func SectionFromPath(path string) string {
	return classify(path, sectionMarker)
}

func classify(path, marker string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part != marker {
			continue
		}
		// The segment after the marker classifies the file only when it is a
		// directory on the way to the file, never the file itself.
		if i+1 >= len(parts)-1 {
			break
		}
		return normalizeSegment(parts[i+1])
	}
	return defaultClassification
}

// normalizeSegment turns a path segment into a display classification:
// underscores and hyphens become spaces, words are title-cased.
func normalizeSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "_", " ")
	seg = strings.ReplaceAll(seg, "-", " ")
	return titleCase(seg)
}
