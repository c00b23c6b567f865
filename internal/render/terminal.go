package render

import (
	"fmt"
	"io"
	"strings"
)

// TerminalFormatter formats posts for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes the posts to w, one block per post.
func (f *TerminalFormatter) Format(w io.Writer, input Input) error {
	name := input.Source.DisplayName
	if name == "" {
		name = input.Source.Name
	}
	fmt.Fprintln(w, f.bold(fmt.Sprintf("%s — %d posts", name, len(input.Posts))))
	fmt.Fprintln(w)

	if len(input.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	for _, post := range input.Posts {
		fmt.Fprintf(w, "  %s %s  %s\n",
			f.bold(fmt.Sprintf("[%d]", post.Score)),
			post.PublishedAt.Format("2006-01-02 15:04"),
			localeTitle(post, input.Locale),
		)
		fmt.Fprintf(w, "      %s\n", f.dim(post.SourceURL))
		if len(post.Tags) > 0 {
			fmt.Fprintf(w, "      %s\n", f.dim(strings.Join(post.Tags, ", ")))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
