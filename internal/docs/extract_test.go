package docs

import "testing"

func TestExtractComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		path    string
		want    Draft
	}{
		{
			name:    "heading_name_and_description",
			content: "# IconButton\n\nA button with an icon.",
			path:    "library/buttons/icon_button.md",
			want: Draft{
				Name:           "IconButton",
				Description:    "A button with an icon.",
				Classification: "Buttons",
			},
		},
		{
			name:    "frontmatter_name_wins_over_heading",
			content: "---\ncomponents:\n  - Badge\n---\n\n# Badges overview\n\nIntro text.\n",
			path:    "library/data_display/badge.md",
			want: Draft{
				Name:           "Badge",
				Description:    "",
				Classification: "Data Display",
			},
		},
		{
			name:    "frontmatter_name_matching_later_heading",
			content: "---\ncomponents:\n  - Badge\n---\n\nIntro text.\n\n# Badge\n\nA badge highlights status.\n",
			path:    "library/data_display/badge.md",
			want: Draft{
				Name:           "Badge",
				Description:    "A badge highlights status.",
				Classification: "Data Display",
			},
		},
		{
			name:    "filename_fallback_has_no_description",
			content: "Some prose without any heading.\n\nMore prose.",
			path:    "library/forms/text_area.md",
			want: Draft{
				Name:           "Text Area",
				Description:    "",
				Classification: "Forms",
			},
		},
		{
			name:    "malformed_frontmatter_falls_through_to_heading",
			content: "---\ncomponents: [unclosed\n---\n\n# Slider\n\nPick a value from a range.",
			path:    "library/forms/slider.md",
			want: Draft{
				Name:           "Slider",
				Description:    "Pick a value from a range.",
				Classification: "Forms",
			},
		},
		{
			name:    "file_directly_in_library_is_other",
			content: "# Overview\n\nThe component library.",
			path:    "library/overview.md",
			want: Draft{
				Name:           "Overview",
				Description:    "The component library.",
				Classification: "Other",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractComponent(tt.content, tt.path)
			if got != tt.want {
				t.Errorf("ExtractComponent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		path    string
		want    Draft
	}{
		{
			name:    "heading_name_and_description",
			content: "# Getting Started\n\nInstall reflex and run the demo.",
			path:    "reflex_docs/getting_started/installation.md",
			want: Draft{
				Name:           "Getting Started",
				Description:    "Install reflex and run the demo.",
				Classification: "Getting Started",
			},
		},
		{
			name:    "description_taken_from_first_heading_even_with_frontmatter_name",
			content: "---\ncomponents:\n  - State\n---\n\n# State management\n\nState drives every app.\n\n# Details\n\nMore below.",
			path:    "reflex_docs/state/overview.md",
			want: Draft{
				Name:           "State",
				Description:    "State drives every app.",
				Classification: "State",
			},
		},
		{
			name:    "no_heading_means_no_description",
			content: "Plain prose only.",
			path:    "reflex_docs/recipes/sidebar_layout.md",
			want: Draft{
				Name:           "Sidebar Layout",
				Description:    "",
				Classification: "Recipes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSection(tt.content, tt.path)
			if got != tt.want {
				t.Errorf("ExtractSection() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFrontmatterName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		want    string
		ok      bool
	}{
		{"---\ncomponents:\n  - IconButton\n---\nbody", "IconButton", true},
		{"---\ncomponents:\n  - ' Padded '\n  - Second\n---\n", "Padded", true},
		{"---\ntitle: no components key\n---\n", "", false},
		{"---\ncomponents: []\n---\n", "", false},
		{"---\ncomponents: not a list\n---\n", "", false},
		{"no frontmatter at all\n", "", false},
		{"---\nbroken: [yaml\n---\n", "", false},
	}

	for _, tt := range tests {
		got, ok := frontmatterName(tt.content)
		if got != tt.want || ok != tt.ok {
			t.Errorf("frontmatterName(%q) = %q, %v, want %q, %v", tt.content, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHeadingText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"# Title", "Title", true},
		{"#  Spaced  ", "Spaced", true},
		{"#\tTabbed", "Tabbed", true},
		{"## Subheading", "", false},
		{"#NoSpace", "", false},
		{"# ", "", false},
		{"plain text", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := headingText(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("headingText(%q) = %q, %v, want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHeadingBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		heading string
		want    string
	}{
		{
			name:    "stops_at_blank_line",
			content: "# Button\n\nFirst paragraph\nstill first.\n\nSecond paragraph.",
			heading: "Button",
			want:    "First paragraph\nstill first.",
		},
		{
			name:    "stops_at_next_heading",
			content: "# Button\nLeads straight in.\n## Props\nIgnored.",
			heading: "Button",
			want:    "Leads straight in.",
		},
		{
			name:    "skips_blank_lines_before_block",
			content: "# Button\n\n\n   \nEventually text.",
			heading: "Button",
			want:    "Eventually text.",
		},
		{
			name:    "whitespace_only_line_kept_inside_block",
			content: "# Button\n\nline one\n   \nline two\n\nafter",
			heading: "Button",
			want:    "line one\n   \nline two",
		},
		{
			name:    "runs_to_end_of_input",
			content: "# Button\n\nTrailing description",
			heading: "Button",
			want:    "Trailing description",
		},
		{
			name:    "matches_exact_heading_only",
			content: "# Buttons\n\nPlural page.\n\n# Button\n\nSingular page.",
			heading: "Button",
			want:    "Singular page.",
		},
		{
			name:    "no_matching_heading",
			content: "# Other\n\nText.",
			heading: "Button",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := headingBlock(tt.content, tt.heading)
			if got != tt.want {
				t.Errorf("headingBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNameFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"library/buttons/icon_button.md", "Icon Button"},
		{"reflex_docs/api.md", "Api"},
		{"docs/UPPER_CASE.md", "Upper Case"},
		{"plain.md", "Plain"},
		{"nested/dir/multi_word_name.md", "Multi Word Name"},
	}

	for _, tt := range tests {
		got := nameFromFilename(tt.path)
		if got != tt.want {
			t.Errorf("nameFromFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
