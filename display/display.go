// Package display drives the indicator LED and the 16x2 character display.
package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color is the state of the RGB indicator LED.
type Color int

const (
	Off Color = iota
	Red
	Green
	Blue
	// White lights all three LEDs, only used for the startup blink
	White
)

func (c Color) String() string {
	switch c {
	case Off:
		return "OFF"
	case Red:
		return "RED"
	case Green:
		return "GREEN"
	case Blue:
		return "BLUE"
	case White:
		return "WHITE"
	default:
		return fmt.Sprintf("COLOR(%d)", int(c))
	}
}

// Cols is the width of a display line.
const Cols = 16

// Display is the presentational output of the box. Implementations must not
// block for long, the state machine calls them on every transition.
type Display interface {
	SetColor(c Color) error
	Show(line1, line2 string) error
	Close() error
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > Cols {
		return string(r[:Cols])
	}
	return s
}

// Console renders the LED and both display lines to a terminal.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
	color  Color
	lines  [2]string
}

// NewConsole writes to out; styling is enabled when out is a terminal.
func NewConsole(out io.Writer) *Console {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{out: out, styled: styled}
}

func (c *Console) SetColor(col Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = col
	return c.render()
}

func (c *Console) Show(line1, line2 string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = [2]string{clip(line1), clip(line2)}
	return c.render()
}

func (c *Console) Close() error {
	return nil
}

var ledColors = map[Color]lipgloss.Color{
	Off:   lipgloss.Color("#3a3a3a"),
	Red:   lipgloss.Color("#ff0000"),
	Green: lipgloss.Color("#00ff00"),
	Blue:  lipgloss.Color("#0000ff"),
	White: lipgloss.Color("#ffffff"),
}

func (c *Console) render() error {
	var err error
	if !c.styled {
		_, err = fmt.Fprintf(c.out, "[%-5s] %-*s | %s\n", c.color, Cols, c.lines[0], c.lines[1])
		return err
	}

	led := lipgloss.NewStyle().Bold(true).Foreground(ledColors[c.color]).Render("●")
	panel := lipgloss.NewStyle().
		Width(Cols).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		Render(lipgloss.JoinVertical(lipgloss.Left, c.lines[0], c.lines[1]))
	_, err = fmt.Fprintln(c.out, lipgloss.JoinHorizontal(lipgloss.Center, led, " ", panel))
	return err
}
