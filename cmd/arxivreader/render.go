package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/usecase"
)

const abstractWidth = 280

type styles struct {
	header   lipgloss.Style
	title    lipgloss.Style
	meta     lipgloss.Style
	category lipgloss.Style
	mark     lipgloss.Style
	body     lipgloss.Style
	notice   lipgloss.Style
}

// newStyles binds the palette to w so non-terminal output stays plain.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		title:    r.NewStyle().Bold(true),
		meta:     r.NewStyle().Faint(true),
		category: r.NewStyle().Foreground(lipgloss.Color("42")),
		mark:     r.NewStyle().Foreground(lipgloss.Color("220")),
		body:     r.NewStyle().PaddingLeft(4).Width(100),
		notice:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("208")),
	}
}

func renderView(w io.Writer, v usecase.View, limit int) {
	st := newStyles(w)

	header := fmt.Sprintf("%d of %d papers · %s", len(v.Papers), v.Total, v.State.DateRange)
	if q := strings.TrimSpace(v.State.SearchQuery); q != "" {
		header += fmt.Sprintf(" · search %q", q)
	}
	if k := v.State.QuickFilterKey; k != "" && k != domain.QuickFilterAll {
		header += " · " + k
	}
	fmt.Fprintln(w, st.header.Render(header))

	if v.Message != "" {
		fmt.Fprintln(w, st.notice.Render(v.Message))
	}

	for i, p := range limitPapers(v.Papers, limit) {
		mark := " "
		if v.Bookmarked[p.ID] {
			mark = st.mark.Render("★")
		}
		fmt.Fprintf(w, "%s %2d. %s %s\n", mark, i+1, st.title.Render(p.Title), st.category.Render("["+p.Category+"]"))

		meta := p.ID + " · " + p.Link
		if p.Authors != "" {
			meta = p.Authors + " · " + meta
		}
		fmt.Fprintln(w, "    "+st.meta.Render(meta))
		if p.Abstract != "" {
			fmt.Fprintln(w, st.body.Render(truncate(p.Abstract, abstractWidth)))
		}
	}
	if limit > 0 && len(v.Papers) > limit {
		fmt.Fprintln(w, st.meta.Render(fmt.Sprintf("… %d more", len(v.Papers)-limit)))
	}
}

func renderBookmarks(w io.Writer, items []domain.BookmarkRecord) {
	st := newStyles(w)

	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%d bookmarks", len(items))))
	for _, b := range items {
		title := b.Title
		if title == "" {
			title = b.ID
		}
		fmt.Fprintf(w, "%s %s %s\n", st.mark.Render("★"), st.title.Render(title), st.category.Render("["+b.Category+"]"))
		fmt.Fprintln(w, "    "+st.meta.Render(b.ID+" · "+b.Link+" · saved "+b.AddedAt.Format("2006-01-02")))
	}
}

func limitPapers(papers []domain.PaperRecord, limit int) []domain.PaperRecord {
	if limit > 0 && len(papers) > limit {
		return papers[:limit]
	}
	return papers
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
