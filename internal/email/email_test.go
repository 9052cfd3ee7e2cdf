package email

import (
	"strings"
	"testing"
	"time"

	"newsbrief/internal/core"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"fenced document", "```html\n<p>News.</p>\n```", "<p>News.</p>"},
		{"no fences", "<p>News.</p>", "<p>News.</p>"},
		{"surrounding whitespace", "  \n<p>News.</p>\n  ", "<p>News.</p>"},
		{"prefix only", "```html\n<p>Cut off", "<p>Cut off"},
		{"suffix only", "<p>Tail</p>\n```", "<p>Tail</p>"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	got := Subject("technology")
	expected := "Weekly News Summary for technology"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestUnsubscribeLink(t *testing.T) {
	if got := UnsubscribeLink("", "alex@example.com"); got != "" {
		t.Errorf("Expected empty link without base URL, got %q", got)
	}

	got := UnsubscribeLink("https://news.example.com/unsubscribe-email", "a+b@example.com")
	expected := "https://news.example.com/unsubscribe-email?email=a%2Bb%40example.com"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func testDigest() core.Digest {
	return core.Digest{
		ID:          "digest-1",
		Topic:       "technology",
		SummaryText: "```html\n<p>Chips got faster.</p>\n```",
		SourceArticles: []core.EnrichedArticle{
			{
				Title:         "Chips & Wafers",
				Link:          "https://example.com/chips",
				Source:        "Example News",
				PublishedDate: "2025-06-10",
			},
			{Link: "https://example.com/mystery"},
		},
		ChunkCount:  1,
		ModelUsed:   "gemini-2.0-flash",
		GeneratedAt: time.Date(2025, 6, 15, 7, 0, 0, 0, time.UTC),
	}
}

func TestConvertDigest(t *testing.T) {
	data := ConvertDigest(testDigest(), "https://news.example.com/u?email=x")

	if data.Topic != "technology" {
		t.Errorf("Expected topic 'technology', got %q", data.Topic)
	}
	if data.Date != "June 15, 2025" {
		t.Errorf("Expected formatted date, got %q", data.Date)
	}
	if string(data.Summary) != "<p>Chips got faster.</p>" {
		t.Errorf("Expected fence-stripped summary, got %q", data.Summary)
	}
	if len(data.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(data.Articles))
	}
	if data.Articles[0].Title != "Chips & Wafers" {
		t.Errorf("Expected article title preserved, got %q", data.Articles[0].Title)
	}
	if data.Articles[1].Title != "Untitled" {
		t.Errorf("Expected 'Untitled' fallback, got %q", data.Articles[1].Title)
	}
	if data.Articles[1].Source != "Unknown" || data.Articles[1].Date != "Unknown" {
		t.Errorf("Expected 'Unknown' fallbacks, got %q / %q", data.Articles[1].Source, data.Articles[1].Date)
	}
}

func TestRenderHTMLEmail(t *testing.T) {
	html, err := RenderHTMLEmail(ConvertDigest(testDigest(), ""))
	if err != nil {
		t.Fatalf("RenderHTMLEmail failed: %v", err)
	}

	// Summary HTML is trusted and must land unescaped.
	if !strings.Contains(html, "<p>Chips got faster.</p>") {
		t.Error("Expected summary HTML embedded verbatim")
	}
	// Article metadata comes from scraped pages and must be escaped.
	if !strings.Contains(html, "Chips &amp; Wafers") {
		t.Error("Expected article title to be HTML-escaped")
	}
	if !strings.Contains(html, "Hey there!") {
		t.Error("Expected greeting header")
	}
	if !strings.Contains(html, "Source Articles") {
		t.Error("Expected source article section")
	}
	if !strings.Contains(html, `href="https://example.com/chips"`) {
		t.Error("Expected article link in output")
	}
	if !strings.Contains(html, "Example News - 2025-06-10") {
		t.Error("Expected source and date line")
	}
	if strings.Contains(html, "To unsubscribe") {
		t.Error("Expected no unsubscribe footer without a link")
	}
}

func TestRenderHTMLEmailWithUnsubscribe(t *testing.T) {
	link := UnsubscribeLink("https://news.example.com/unsubscribe-email", "alex@example.com")
	html, err := RenderHTMLEmail(ConvertDigest(testDigest(), link))
	if err != nil {
		t.Fatalf("RenderHTMLEmail failed: %v", err)
	}

	if !strings.Contains(html, "To unsubscribe") {
		t.Error("Expected unsubscribe footer")
	}
	if !strings.Contains(html, "email=alex%40example.com") {
		t.Error("Expected escaped recipient in unsubscribe link")
	}
}
