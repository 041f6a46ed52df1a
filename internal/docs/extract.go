package docs

import (
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Draft is the record extracted from one markdown page before it is written
// to the catalog. Classification holds the category for component pages and
// the section for everything else.
type Draft struct {
	Name           string
	Description    string
	Classification string
}

// ExtractComponent builds the draft record for a component page under the
// library tree.
func ExtractComponent(content, path string) Draft {
	name := resolveName(content, path)
	return Draft{
		Name:           name,
		Description:    headingBlock(content, name),
		Classification: CategoryFromPath(path),
	}
}

// ExtractSection builds the draft record for a general documentation page.
// Unlike components, the description is anchored at the first level-1 heading
// no matter how the name was resolved.
func ExtractSection(content, path string) Draft {
	return Draft{
		Name:           resolveName(content, path),
		Description:    firstHeadingBlock(content),
		Classification: SectionFromPath(path),
	}
}

// resolveName applies the name resolution order: frontmatter components list,
// first level-1 heading, then the filename.
func resolveName(content, path string) string {
	if name, ok := frontmatterName(content); ok {
		return name
	}
	if name, ok := firstHeading(content); ok {
		return name
	}
	return nameFromFilename(path)
}

// pageMeta is the frontmatter envelope recognized at the top of a page.
type pageMeta struct {
	Components []string `yaml:"components"`
}

// frontmatterName returns the first entry of the frontmatter components list.
// Malformed or absent frontmatter reports no match so resolution falls
// through to the headings.
func frontmatterName(content string) (string, bool) {
	var meta pageMeta
	if _, err := frontmatter.Parse(strings.NewReader(content), &meta); err != nil {
		return "", false
	}
	if len(meta.Components) == 0 {
		return "", false
	}
	name := strings.TrimSpace(meta.Components[0])
	if name == "" {
		return "", false
	}
	return name, true
}

// firstHeading returns the text of the first level-1 heading line.
func firstHeading(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if text, ok := headingText(line); ok {
			return text, true
		}
	}
	return "", false
}

// headingText parses a level-1 heading line ("# Title"). Deeper headings and
// lines without heading markup report no match.
func headingText(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok || rest == "" {
		return "", false
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	text := strings.TrimSpace(rest)
	if text == "" {
		return "", false
	}
	return text, true
}

// headingBlock returns the description block following the level-1 heading
// whose text equals name. Pages whose name never appears as a heading, such
// as names derived from the filename, have no description.
func headingBlock(content, name string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if text, ok := headingText(line); ok && text == name {
			return blockAfter(lines, i+1)
		}
	}
	return ""
}

// firstHeadingBlock returns the description block after the first level-1
// heading in the page.
func firstHeadingBlock(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if _, ok := headingText(line); ok {
			return blockAfter(lines, i+1)
		}
	}
	return ""
}

// blockAfter collects the description block starting at lines[start]:
// whitespace-only lines before the block are skipped, then lines accumulate
// until an empty line, the next heading, or the end of the page. A line of
// only spaces inside the block does not end it.
func blockAfter(lines []string, start int) string {
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	var block []string
	for ; i < len(lines); i++ {
		if lines[i] == "" || strings.HasPrefix(lines[i], "#") {
			break
		}
		block = append(block, lines[i])
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}

// nameFromFilename derives a display name from the file stem:
// "icon_button.md" becomes "Icon Button".
func nameFromFilename(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return titleCase(strings.ReplaceAll(stem, "_", " "))
}

// titleCase uppercases the first letter of each word and lowercases the rest.
// A fresh caser per call because cases.Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
