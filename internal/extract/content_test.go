package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestContentExtractor_PrefersArticle(t *testing.T) {
	page := `<html><head><title>T</title><script>var x = 1;</script></head>
	<body>
		<nav>Home | World | Sports</nav>
		<header>Site banner</header>
		<div class="sidebar">Trending elsewhere</div>
		<article>
			<p>The mayor said the road would reopen.</p>
			<p>Crews (AP Photo/Jane Doe) worked overnight.</p>
			<script>track();</script>
		</article>
		<footer>Copyright</footer>
	</body></html>`

	got := NewContentExtractor(6000).Extract(page)
	want := "The mayor said the road would reopen. Crews worked overnight."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestContentExtractor_MainBeforeDiv(t *testing.T) {
	page := `<html><body>
		<div class="article-body">Div text</div>
		<main><p>Main text</p></main>
	</body></html>`

	if got := NewContentExtractor(6000).Extract(page); got != "Main text" {
		t.Errorf("Expected main container, got %q", got)
	}
}

func TestContentExtractor_ClassTokenDiv(t *testing.T) {
	page := `<html><body>
		<div class="promo">Promo text</div>
		<div class="wrapper story-content">Story text</div>
		<div class="content">Second content</div>
	</body></html>`

	if got := NewContentExtractor(6000).Extract(page); got != "Story text" {
		t.Errorf("Expected first content-like div, got %q", got)
	}
}

func TestContentExtractor_BodyFallback(t *testing.T) {
	page := `<html><body><p>Only <b>body</b> text</p></body></html>`

	if got := NewContentExtractor(6000).Extract(page); got != "Only body text" {
		t.Errorf("Expected body text with spaced nodes, got %q", got)
	}
}

func TestContentExtractor_EmptyContainerFallsBackToParagraphs(t *testing.T) {
	page := `<html><body>
		<article><img src="x.png"></article>
		<p>First paragraph.</p>
		<p>Second paragraph.</p>
	</body></html>`

	got := NewContentExtractor(6000).Extract(page)
	if got != "First paragraph. Second paragraph." {
		t.Errorf("Expected paragraph fallback, got %q", got)
	}
}

func TestContentExtractor_Truncates(t *testing.T) {
	page := "<html><body><article><p>" + strings.Repeat("é", 100) + "</p></article></body></html>"

	got := NewContentExtractor(40).Extract(page)
	if n := utf8.RuneCountInString(got); n != 40 {
		t.Errorf("Expected 40 characters, got %d", n)
	}
}

func TestContentExtractor_EmptyPage(t *testing.T) {
	if got := NewContentExtractor(6000).Extract(""); got != "" {
		t.Errorf("Expected empty text, got %q", got)
	}
}

func TestContentExtractor_Clean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"gallery counter", "1 of 5| The mayor spoke.", "The mayor spoke."},
		{"breaking banner", "THIS IS A BREAKING NEWS UPDATE. Storm hits coast.", "Storm hits coast."},
		{"advertisement", "Advertisement | Prices rose.", "Prices rose."},
		{"share prompt", "Share this article Prices rose.", "Prices rose."},
		{"read more", "Prices rose. Read More Prices fell.", "Prices rose. Prices fell."},
		{"whitespace", "  a \n\t b  ", "a b"},
		{"unicode spaces", "Officials said\u00a0\u00a0the bridge\u2009reopened.\u00a0", "Officials said the bridge reopened."},
	}

	e := NewContentExtractor(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentExtractor_CollapsesNonBreakingSpaces(t *testing.T) {
	page := `<html><body><article><p>Officials said&nbsp;&nbsp;the bridge would reopen.</p></article></body></html>`

	want := "Officials said the bridge would reopen."
	if got := NewContentExtractor(6000).Extract(page); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
