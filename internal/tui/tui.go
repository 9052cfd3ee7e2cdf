// Package tui is an interactive terminal browser over stored digests.
package tui

import (
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsbrief/internal/core"
)

var (
	blockEndPattern  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</h[1-6]>|</li>`)
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	blankRunsPattern = regexp.MustCompile(`\n{3,}`)
)

// model holds the browser state: the digest list on the left and the
// selected digest's summary on the right.
type model struct {
	digests     []core.Digest
	selectedIdx int
	width       int
	height      int
	quitting    bool
}

func initialModel(digests []core.Digest) model {
	return model{digests: digests}
}

func (m model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(m.digests)-1 {
				m.selectedIdx++
			}
		}
	}

	return m, nil
}

// View renders the two-pane layout.
func (m model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}

	width := m.width
	if width < 40 {
		// The first render can arrive before the window size message.
		width = 80
	}

	docStyle := lipgloss.NewStyle().Margin(1, 2)
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(width/3 - 4)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(2*width/3 - 4)

	var list strings.Builder
	list.WriteString("Digests\n\n")
	if len(m.digests) == 0 {
		list.WriteString("No digests stored yet.")
	} else {
		for i, d := range m.digests {
			cursor := " "
			if i == m.selectedIdx {
				cursor = ">"
			}
			fmt.Fprintf(&list, "%s %s  %s\n", cursor, d.Topic, d.GeneratedAt.Format("2006-01-02"))
		}
	}

	var detail strings.Builder
	if len(m.digests) == 0 {
		detail.WriteString("Run a digest first, then browse it here.")
	} else {
		d := m.digests[m.selectedIdx]
		fmt.Fprintf(&detail, "Topic: %s\n", d.Topic)
		fmt.Fprintf(&detail, "Generated: %s\n", d.GeneratedAt.Format("2006-01-02 15:04 MST"))
		fmt.Fprintf(&detail, "Model: %s\n", d.ModelUsed)
		fmt.Fprintf(&detail, "Articles: %d in %d chunk(s)\n\n", len(d.SourceArticles), d.ChunkCount)
		detail.WriteString(plainText(d.SummaryText))
	}

	leftPane := listStyle.Render(list.String())
	rightPane := detailStyle.Render(detail.String())

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	help := "\n\n[↑/k] Up | [↓/j] Down | [q] Quit"

	return docStyle.Render(mainContent + help)
}

// plainText renders a digest's HTML prose as terminal text: block-level
// closing tags become line breaks, every other tag is dropped, and common
// entities are decoded.
func plainText(html string) string {
	text := blockEndPattern.ReplaceAllString(html, "\n")
	text = tagPattern.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")

	text = blankRunsPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Run starts the digest browser and blocks until the user quits.
func Run(digests []core.Digest) error {
	p := tea.NewProgram(initialModel(digests), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running digest browser: %w", err)
	}
	return nil
}
