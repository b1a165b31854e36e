// Package console prints the operator-facing scan progress. Diagnostic
// logging goes through slog; this is the human-readable report stream.
package console

import (
	"fmt"
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

var (
	matchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

type Printer struct {
	noColor bool
}

func NewPrinter(noColor bool) *Printer {
	return &Printer{noColor: noColor}
}

func (p *Printer) Scanning(i, total int, domain string) {
	fmt.Printf("[%d/%d] Scanning %s...\n", i, total, domain)
}

func (p *Printer) Match(domain, scanKey, protocol string) {
	fmt.Printf("  -> %s Found keywords on %s (final: %s) via %s.\n",
		p.render(matchStyle, "[MATCH]"), domain, scanKey, protocol)
}

// MatchContext prints one keyword context line with the keyword
// occurrences highlighted.
func (p *Printer) MatchContext(keyword, context string) {
	text := context
	if !p.noColor {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
		text = pattern.ReplaceAllStringFunc(context, func(m string) string {
			return keywordStyle.Render(m)
		})
	}
	fmt.Printf("    - [%s]: %s\n", keyword, text)
}

func (p *Printer) NoMatch(domain string) {
	fmt.Printf("  -> [NO MATCH] Scanned %s, but no keywords were found.\n", domain)
}

func (p *Printer) Error(domain, reason string) {
	fmt.Printf("  -> %s %s: %s\n", p.render(errorStyle, "[ERROR]"), domain, reason)
}

func (p *Printer) Note(note string) {
	fmt.Printf("  -> %s %s\n", p.render(noteStyle, "[NOTE]"), note)
}

func (p *Printer) Skip(domain, scanKey string) {
	fmt.Printf("  -> %s %s resolves to the already scanned base domain: %s\n",
		p.render(skipStyle, "[SKIP]"), domain, scanKey)
}

func (p *Printer) Summary(hits, scanned int, logsDir string) {
	fmt.Println("\n--- Scan Summary ---")
	if scanned > 0 {
		fmt.Printf("Found keywords/phrases on %d out of %d sites scanned.\n", hits, scanned)
	} else {
		fmt.Println("No sites were scanned.")
	}
	fmt.Printf("Results have been saved to the '%s/' directory.\n", logsDir)
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if p.noColor {
		return s
	}
	return style.Render(s)
}
