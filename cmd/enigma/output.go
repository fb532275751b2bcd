package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/pollux/enigma/internal/bombe"
	"github.com/pollux/enigma/internal/enigma"
)

var (
	colorAccent = lipgloss.Color("#2CD7C7")
	colorMuted  = lipgloss.Color("#2C4A54")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	tableStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// isTerminal reports whether w is a terminal, so styled output is safe.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeCandidates prints the best top candidates, or all of them when top
// is zero.
func writeCandidates(w io.Writer, found []bombe.Candidate, top int, styled bool) error {
	if len(found) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	shown := found
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}
	if styled {
		_, err := fmt.Fprintln(w, renderTable(shown, len(found)))
		return err
	}

	if _, err := fmt.Fprintf(w, "Top Bombe results (%d of %d):\n", len(shown), len(found)); err != nil {
		return err
	}
	for i, c := range shown {
		_, err := fmt.Fprintf(w, "%d. Position: %s Rotors: %s Score: %.1f Match: %.0f%% Plugboard: %s Offset: %d\n",
			i+1, c.PositionString(), c.RotorString(), c.Score, c.MatchRate*100, pairsString(c), c.Offset)
		if err != nil {
			return err
		}
	}
	return nil
}

func renderTable(shown []bombe.Candidate, total int) string {
	headers := []string{"#", "Position", "Rotors", "Score", "Match", "Plugboard", "Offset"}
	rows := make([][]string, len(shown))
	for i, c := range shown {
		rows[i] = []string{
			fmt.Sprint(i + 1),
			c.PositionString(),
			c.RotorString(),
			fmt.Sprintf("%.1f", c.Score),
			fmt.Sprintf("%.0f%%", c.MatchRate*100),
			pairsString(c),
			fmt.Sprint(c.Offset),
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		return strings.Join(parts, "  ")
	}

	var b strings.Builder
	b.WriteString(line(headers, headerStyle))
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(line(r, lipgloss.NewStyle()))
	}
	title := titleStyle.Render(fmt.Sprintf("Top Bombe results (%d of %d)", len(shown), total))
	return lipgloss.JoinVertical(lipgloss.Left, title, tableStyle.Render(b.String()))
}

func pairsString(c bombe.Candidate) string {
	pairs := c.Pairs()
	if len(pairs) == 0 {
		return "-"
	}
	return strings.Join(pairs, " ")
}

// writePlaintext deciphers the whole message with the best candidate.
// Cables the crib never touched are unknown, so parts of it may be wrong.
func writePlaintext(w io.Writer, best bombe.Candidate, reflector, ciphertext string) error {
	m, err := enigma.New(enigma.Settings{
		Rotors:    best.RotorOrder,
		Reflector: reflector,
		Positions: best.Positions,
		Plugboard: best.Pairs(),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Decrypted with best result: %s\n", m.Encrypt(ciphertext))
	return err
}

// muted renders s dimmed when styled is set.
func muted(s string, styled bool) string {
	if !styled {
		return s
	}
	return mutedStyle.Render(s)
}
