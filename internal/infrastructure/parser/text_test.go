package parser

import (
	"testing"

	"ArxivReader/internal/domain"
)

func TestPlainTextKeepsComparisons(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"Lower bounds when k<n for sparse recovery", "Lower bounds when k<n for sparse recovery"},
		{"<5% error in one pass", "<5% error in one pass"},
		{"for p<q and q>r the rate is <b>optimal</b>", "for p<q and q>r the rate is optimal"},
		{"<p>We learn things.</p>", "We learn things."},
		{"A &amp; B<br/> C", "A & B C"},
		{`<a href="http://arxiv.org/a/roe_j_1">Jane Roe</a>`, "Jane Roe"},
		{"x <sub>i</sub><!-- note --> done", "x i done"},
	}
	for _, tc := range cases {
		if got := plainText(tc.in); got != tc.want {
			t.Fatalf("plainText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitlePrefixes(t *testing.T) {
	t.Parallel()

	feed := []struct{ in, want string }{
		{"[cs.AI] Scaling GPT Agents", "Scaling GPT Agents"},
		{"(hep-th) Strings Again", "Strings Again"},
		{"(Almost) Optimal Regret for Bandits", "(Almost) Optimal Regret for Bandits"},
		{"[Re] Reproducing a Result", "[Re] Reproducing a Result"},
		{"Learning Things. (arXiv:2312.1 [cs.LG])", "Learning Things"},
	}
	for _, tc := range feed {
		if got := cleanFeedTitle(tc.in); got != tc.want {
			t.Fatalf("cleanFeedTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got := cleanTitle("[cs.AI] Kept In Atom"); got != "[cs.AI] Kept In Atom" {
		t.Fatalf("cleanTitle stripped a prefix: %q", got)
	}
}

const comparisonFeed = `<?xml version='1.0' encoding='UTF-8'?>
<rss version="2.0">
  <channel>
    <title>stat.ML updates on arXiv.org</title>
    <link>http://rss.arxiv.org/rss/stat.ML</link>
    <item>
      <title>Lower bounds when k&lt;n for sparse recovery</title>
      <link>http://arxiv.org/abs/2401.00201v1</link>
      <description>arXiv:2401.00201v1 Announce Type: new
Abstract: We show that for p&lt;q the rate is optimal.</description>
    </item>
    <item>
      <title>&lt;5% error with (Almost) no labels</title>
      <link>http://arxiv.org/abs/2401.00202v1</link>
      <description>Short.</description>
    </item>
  </channel>
</rss>`

func TestSyndicationParserKeepsEscapedAngles(t *testing.T) {
	t.Parallel()

	got := NewSyndicationParser(clock).Parse([]byte(comparisonFeed), domain.SourceDescriptor{ID: "stat.ML"})
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[0].Title != "Lower bounds when k<n for sparse recovery" {
		t.Fatalf("unexpected title: %q", got[0].Title)
	}
	if got[0].Abstract != "We show that for p<q the rate is optimal." {
		t.Fatalf("unexpected abstract: %q", got[0].Abstract)
	}
	if got[1].Title != "<5% error with (Almost) no labels" {
		t.Fatalf("unexpected title: %q", got[1].Title)
	}
}
