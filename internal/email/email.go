// Package email renders topic digests as standalone HTML email documents.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"newsbrief/internal/core"
)

// EmailData contains all data needed for email rendering.
type EmailData struct {
	Topic          string
	Date           string
	Summary        template.HTML
	Articles       []ArticleData
	UnsubscribeURL string
}

// ArticleData is one entry of the source article list.
type ArticleData struct {
	Title  string
	Source string
	Date   string
	Link   string
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .summary { margin-bottom: 20px; }
        .articles { margin-top: 20px; }
        .article { margin-bottom: 15px; padding: 10px; border-left: 3px solid #007bff; }
        .title { font-weight: bold; color: #007bff; }
        .source { color: #666; font-size: 0.9em; }
        .link { color: #007bff; text-decoration: none; }
        .footer { margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; font-size: 0.8em; color: #666; }
    </style>
</head>
<body>
    <div>
        <h1>Hey there! 🙋</h1>
        <div class="source">{{.Topic}} - {{.Date}}</div>
    </div>
    <div class="summary">
        {{.Summary}}
    </div>
    <div class="articles">
        <h2>Source Articles</h2>
        {{range .Articles}}
        <div class="article">
            <div class="title">{{.Title}}</div>
            <div class="source">{{.Source}} - {{.Date}}</div>
            <a href="{{.Link}}" class="link">Read original article</a>
        </div>
        {{end}}
    </div>
    <div class="footer">
        <p>This is your automated weekly news digest.</p>
        {{if .UnsubscribeURL}}
        <p>To unsubscribe, <a href="{{.UnsubscribeURL}}">click here</a>.</p>
        {{end}}
    </div>
</body>
</html>`

// StripFences removes a markdown code fence wrapper from model output.
// Models asked for HTML frequently wrap the whole document in ```html ... ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Subject returns the delivery subject line for a topic digest.
func Subject(topic string) string {
	return fmt.Sprintf("Weekly News Summary for %s", topic)
}

// UnsubscribeLink builds the footer unsubscribe URL for one recipient.
// An empty base URL disables the link.
func UnsubscribeLink(baseURL, email string) string {
	if baseURL == "" {
		return ""
	}
	params := url.Values{}
	params.Set("email", email)
	return baseURL + "?" + params.Encode()
}

// ConvertDigest prepares a digest for rendering. The summary text is
// embedded as-is after fence stripping; article metadata is escaped by the
// template.
func ConvertDigest(digest core.Digest, unsubscribeURL string) EmailData {
	data := EmailData{
		Topic:          digest.Topic,
		Date:           digest.GeneratedAt.Format("January 2, 2006"),
		Summary:        template.HTML(StripFences(digest.SummaryText)),
		UnsubscribeURL: unsubscribeURL,
	}

	for _, article := range digest.SourceArticles {
		data.Articles = append(data.Articles, ArticleData{
			Title:  orDefault(article.Title, "Untitled"),
			Source: orDefault(article.Source, "Unknown"),
			Date:   orDefault(article.PublishedDate, "Unknown"),
			Link:   orDefault(article.Link, "#"),
		})
	}

	return data
}

// RenderHTMLEmail renders digest data as a complete HTML email body.
func RenderHTMLEmail(data EmailData) (string, error) {
	tmpl, err := template.New("email").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
