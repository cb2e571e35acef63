package cetd_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperifyio/gocetd/internal/cetd"
	"github.com/hyperifyio/gocetd/internal/htmldoc"
)

func parse(t *testing.T, src string, opts ...htmldoc.Option) *htmldoc.Document {
	t.Helper()
	d, err := htmldoc.Parse(strings.NewReader(src), opts...)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestScenario_ArticleBeatsNavigation(t *testing.T) {
	p1 := "The committee published its annual report on Tuesday, describing a year of steady growth across every region it monitors."
	p2 := "Analysts expect the trend to continue next year, although several cautioned that rising costs could slow the pace of expansion."
	src := `<!DOCTYPE html>
<html>
<head><title>Report</title><style>p { color: red }</style></head>
<body>
  <nav><a href="/">Home</a> <a href="/news">News</a> <a href="/about">About</a></nav>
  <main>
    <article>
      <p>` + p1 + `</p>
      <p>` + p2 + `</p>
    </article>
  </main>
</body>
</html>`
	d := parse(t, src)
	tree, err := cetd.Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	best, err := tree.Highest()
	if err != nil {
		t.Fatalf("Highest: %v", err)
	}
	if d.Tag(best) != "article" {
		t.Fatalf("highest=%q, want article", d.Tag(best))
	}
	c, err := cetd.Extract(d, tree, cetd.ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := p1 + "\n" + p2; c.Text != want {
		t.Fatalf("text=%q\nwant %q", c.Text, want)
	}
	for _, nav := range []string{"Home", "News", "About"} {
		if strings.Contains(c.Text, nav) {
			t.Fatalf("navigation text %q leaked", nav)
		}
	}
}

func TestScenario_EmptyBody(t *testing.T) {
	d := parse(t, `<html><body></body></html>`)
	tree, err := cetd.Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := tree.Highest(); !errors.Is(err, cetd.ErrEmptyDocument) {
		t.Fatalf("err=%v, want ErrEmptyDocument", err)
	}
}

func TestScenario_RawTextInDiv(t *testing.T) {
	const text = "Plain text sitting directly inside a div."
	for _, root := range []string{"body", "div"} {
		t.Run(root, func(t *testing.T) {
			d := parse(t, `<div>`+text+`</div>`, htmldoc.WithRoot(root))
			tree, err := cetd.Build(d)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			best, err := tree.Highest()
			if err != nil {
				t.Fatal(err)
			}
			if d.Kind(best) != cetd.TextNode {
				t.Fatalf("highest kind=%s, want text", d.Kind(best))
			}
			c, err := cetd.Extract(d, tree, cetd.ExtractOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if d.Tag(c.Boundary) != "div" {
				t.Fatalf("boundary=%q, want div", d.Tag(c.Boundary))
			}
			if c.Text != text {
				t.Fatalf("text=%q", c.Text)
			}
		})
	}
}

func BenchmarkBuildAndExtract(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("<html><body><nav>")
	for i := 0; i < 50; i++ {
		sb.WriteString(`<a href="/x">link</a> `)
	}
	sb.WriteString("</nav><article>")
	for i := 0; i < 200; i++ {
		sb.WriteString("<p>" + strings.Repeat("lorem ipsum dolor sit amet ", 8) + "</p>")
	}
	sb.WriteString("</article></body></html>")
	src := sb.String()
	d, err := htmldoc.Parse(strings.NewReader(src))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree, err := cetd.Build(d)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := cetd.Extract(d, tree, cetd.ExtractOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
