package cleaner

import (
	"strings"
	"testing"
)

const sampleArticle = `<!DOCTYPE html>
<html><head><title>Coffee Brewing Basics</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Coffee Brewing Basics</h1>
<p>Grinding beans immediately before brewing preserves the aromatic compounds
that make coffee taste fresh. A burr grinder produces a far more even particle
size than a blade grinder, which matters because uneven grounds extract at
different rates and muddy the cup.</p>
<p>Water temperature is the second variable worth controlling. Aim for a range
between 90 and 96 degrees Celsius; cooler water under-extracts and tastes sour,
hotter water scalds the grounds and tastes bitter.</p>
</article>
<footer>Copyright 2026</footer>
</body></html>`

func TestClean_Markdown(t *testing.T) {
	c := NewCleaner()

	resp, err := c.Clean(sampleArticle, "https://example.com/coffee", "markdown", "readability")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if !resp.Success {
		t.Error("Success should be true")
	}
	if !strings.Contains(resp.Content, "burr grinder") {
		t.Errorf("markdown output lost article text: %q", resp.Content)
	}
	if strings.Contains(resp.Content, "<p>") {
		t.Error("markdown output should not contain HTML tags")
	}
	if resp.Metadata.SourceURL != "https://example.com/coffee" {
		t.Errorf("SourceURL = %q", resp.Metadata.SourceURL)
	}
	if resp.Tokens.OriginalEstimate == 0 || resp.Tokens.CleanedEstimate == 0 {
		t.Errorf("token estimates missing: %+v", resp.Tokens)
	}
	if resp.Tokens.CleanedEstimate > resp.Tokens.OriginalEstimate {
		t.Errorf("cleaning should not grow the content: %+v", resp.Tokens)
	}
}

func TestClean_Text(t *testing.T) {
	c := NewCleaner()

	resp, err := c.Clean(sampleArticle, "https://example.com/coffee", "text", "readability")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if !strings.Contains(resp.Content, "Water temperature") {
		t.Errorf("text output lost article text: %q", resp.Content)
	}
	if strings.Contains(resp.Content, "<") {
		t.Error("text output should not contain markup")
	}
}

func TestClean_RawModeKeepsFullHTML(t *testing.T) {
	c := NewCleaner()

	resp, err := c.Clean(sampleArticle, "https://example.com/coffee", "html", "raw")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	// Raw mode skips readability, so boilerplate like the nav survives.
	if !strings.Contains(resp.Content, "/about") {
		t.Error("raw mode should keep the page's boilerplate")
	}
}

func TestClean_ShortPageFallsBack(t *testing.T) {
	c := NewCleaner()
	short := `<html><body><p>hi</p></body></html>`

	resp, err := c.Clean(short, "https://example.com/x", "text", "readability")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if !strings.Contains(resp.Content, "hi") {
		t.Errorf("fallback should keep the page text, got %q", resp.Content)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"tiny still counts", "ab", 1},
		{"english", strings.Repeat("word ", 60), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens = %d, want %d", got, tt.want)
			}
		})
	}
}
