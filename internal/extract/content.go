package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	boilerplateTags = "script, style, nav, footer, aside, header, iframe, noscript"

	containerClass = regexp.MustCompile(`content|article|body`)

	// Wire-service boilerplate that survives tag removal
	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d+ of \d+\|?`),
		regexp.MustCompile(`(?i)Read More.*?(of \d+\|?)?`),
		regexp.MustCompile(`(?i)\(AP Photo[^)]*\)`),
		regexp.MustCompile(`(?i)THIS IS A BREAKING NEWS UPDATE\.?`),
		regexp.MustCompile(`(?i)Advertisement \|`),
		regexp.MustCompile(`(?i)Share this article`),
	}
)

// ContentExtractor turns raw article HTML into bounded plain text
type ContentExtractor struct {
	maxLength int
}

// NewContentExtractor creates an extractor that truncates to maxLength characters
func NewContentExtractor(maxLength int) *ContentExtractor {
	return &ContentExtractor{maxLength: maxLength}
}

// Extract returns the main article text. Malformed markup is tolerated;
// an unparseable page yields "".
func (e *ContentExtractor) Extract(htmlContent string) string {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find(boilerplateTags).Remove()

	text := visibleText(selectContainer(doc))
	if strings.TrimSpace(text) == "" {
		var parts []string
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, visibleText(s))
		})
		text = strings.Join(parts, " ")
	}

	return e.Clean(text)
}

// Clean strips boilerplate phrases, collapses whitespace and truncates
func (e *ContentExtractor) Clean(text string) string {
	for _, re := range noisePatterns {
		text = re.ReplaceAllString(text, "")
	}
	// strings.Fields splits on Unicode spaces, including NBSP
	text = strings.Join(strings.Fields(text), " ")

	if e.maxLength > 0 {
		runes := []rune(text)
		if len(runes) > e.maxLength {
			text = string(runes[:e.maxLength])
		}
	}
	return text
}

// selectContainer picks article, then main, then the first div with a
// content-like class token, then body
func selectContainer(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("article").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s
	}

	var found *goquery.Selection
	doc.Find("div[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		for _, token := range strings.Fields(class) {
			if containerClass.MatchString(token) {
				found = s
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}

	return doc.Find("body").First()
}

// visibleText joins all text nodes under the selection with single spaces
func visibleText(sel *goquery.Selection) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return buf.String()
}
