package render

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter formats posts as a Markdown page.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the posts as Markdown to w.
func (f *MarkdownFormatter) Format(w io.Writer, input Input) error {
	title := input.Source.DisplayName
	if title == "" {
		title = input.Source.Name
	}
	fmt.Fprintf(w, "# %s\n\n", title)
	if input.Source.Description != "" {
		fmt.Fprintf(w, "%s\n\n", input.Source.Description)
	}

	if len(input.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	for _, post := range input.Posts {
		fmt.Fprintf(w, "## [%s](%s)\n\n", localeTitle(post, input.Locale), post.SourceURL)

		meta := []string{post.PublishedAt.Format("2006-01-02")}
		if post.SourceDomain != "" {
			meta = append(meta, post.SourceDomain)
		}
		if post.Author != "" {
			meta = append(meta, "by "+post.Author)
		}
		meta = append(meta, fmt.Sprintf("score %d", post.Score))
		fmt.Fprintf(w, "%s\n\n", strings.Join(meta, " · "))

		if summary := localeSummary(post, input.Locale); summary != "" {
			fmt.Fprintf(w, "%s\n\n", summary)
		}
		if len(post.Tags) > 0 {
			parts := make([]string, len(post.Tags))
			for i, tag := range post.Tags {
				parts[i] = "`" + tag + "`"
			}
			fmt.Fprintf(w, "%s\n\n", strings.Join(parts, " "))
		}
	}
	return nil
}
