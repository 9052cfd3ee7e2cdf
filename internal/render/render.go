// Package render produces human-facing run output: markdown digest exports
// and the aligned per-run summary table.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"newsbrief/internal/core"
	"newsbrief/internal/email"
)

// WriteMarkdownDigest exports a digest as a standalone markdown file named
// digest_{topic}_{date}.md in outputDir and returns the written path.
func WriteMarkdownDigest(digest core.Digest, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "digests" // Default output directory
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	dateStr := digest.GeneratedAt.UTC().Format("2006-01-02")
	filename := fmt.Sprintf("digest_%s_%s.md", slugify(digest.Topic), dateStr)
	filePath := filepath.Join(outputDir, filename)

	var md strings.Builder
	md.WriteString(fmt.Sprintf("# Weekly News Summary for %s - %s\n\n", digest.Topic, dateStr))
	md.WriteString(email.StripFences(digest.SummaryText))
	md.WriteString("\n\n")

	if len(digest.SourceArticles) > 0 {
		md.WriteString("## Source Articles\n\n")
		for _, article := range digest.SourceArticles {
			title := article.Title
			if title == "" {
				title = article.Link
			}
			md.WriteString(fmt.Sprintf("- [%s](%s)", title, article.Link))
			if article.Source != "" {
				md.WriteString(fmt.Sprintf(" (%s", article.Source))
				if article.PublishedDate != "" {
					md.WriteString(fmt.Sprintf(", %s", article.PublishedDate))
				}
				md.WriteString(")")
			}
			md.WriteString("\n")
		}
		md.WriteString("\n")
	}

	md.WriteString(fmt.Sprintf("*Generated %s by %s*\n",
		digest.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), digest.ModelUsed))

	if err := os.WriteFile(filePath, []byte(md.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write digest file %s: %w", filePath, err)
	}

	return filePath, nil
}

// slugify lowercases a topic and keeps only filename-safe characters.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "topic"
	}
	return b.String()
}
