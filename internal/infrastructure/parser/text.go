package parser

import (
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	idExpr            = regexp.MustCompile(`/(?:abs|pdf)/([a-z\-]+(?:\.[A-Z]{2})?/\d{7}|\d{4}\.\d{4,5})(?:v\d+)?`)
	categoryTagExpr   = regexp.MustCompile(`^\s*[\[(][a-z\-]+(?:\.[A-Za-z\-]+)?[\])]\s*`)
	markupExpr        = regexp.MustCompile(`(?i)<!--.*?-->|</?(?:a|abbr|b|big|blockquote|br|cite|code|dd|div|dl|dt|em|font|h[1-6]|hr|i|img|li|ol|p|pre|s|script|small|span|strike|strong|style|sub|sup|table|tbody|td|th|thead|tr|tt|u|ul)(?:\s+[a-z_:][-\w:.]*\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'<>=]+))*\s*/?>`)
	trailingTagExpr   = regexp.MustCompile(`\.?\s*\(arXiv:[^)]*\)\s*$`)
	abstractLeadExpr  = regexp.MustCompile(`(?is)^arXiv:\S+\s+Announce\s+Type:\s*\S+\s+Abstract:\s*`)
	abstractLabelExpr = regexp.MustCompile(`(?i)^Abstract:\s*`)
)

// ExtractID pulls the arXiv identifier out of an abs/pdf URL, without version.
func ExtractID(link string) string {
	match := idExpr.FindStringSubmatch(link)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func lastSegment(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	seg := path.Base(strings.TrimSuffix(parsed.Path, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}

// secureURL returns an absolute https URL, or "" when raw is not absolute.
func secureURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		parsed.Scheme = "https"
	default:
		return ""
	}
	return parsed.String()
}

// plainText decodes entities, drops markup and collapses whitespace. A "<"
// that does not open a known HTML element is text, as in "k<n".
func plainText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return collapse(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayAngles(raw)))
	if err != nil {
		return collapse(html.UnescapeString(raw))
	}
	doc.Find("script, style").Remove()
	return collapse(doc.Text())
}

// escapeStrayAngles turns every "<" outside a recognised tag into "&lt;".
func escapeStrayAngles(raw string) string {
	if !strings.Contains(raw, "<") {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) + 8)
	last := 0
	for _, loc := range markupExpr.FindAllStringIndex(raw, -1) {
		b.WriteString(strings.ReplaceAll(raw[last:loc[0]], "<", "&lt;"))
		b.WriteString(raw[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(raw[last:], "<", "&lt;"))
	return b.String()
}

func cleanTitle(raw string) string {
	title := plainText(raw)
	title = trailingTagExpr.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// cleanFeedTitle also drops the "[cs.AI]" prefix daily feeds put on titles.
func cleanFeedTitle(raw string) string {
	return strings.TrimSpace(categoryTagExpr.ReplaceAllString(cleanTitle(raw), ""))
}

func cleanAbstract(raw string) string {
	abstract := plainText(raw)
	abstract = abstractLeadExpr.ReplaceAllString(abstract, "")
	abstract = abstractLabelExpr.ReplaceAllString(abstract, "")
	return strings.TrimSpace(abstract)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
