package input

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/manifoldco/promptui"
)

type menuItem struct {
	Label  string
	Events []Event
}

// the shutdown entry emulates pressing SCAN and RECORD together, the state
// machine does the gesture detection like it does for the buttons
var menu = []menuItem{
	{"Record on/off", []Event{RecordToggle}},
	{"Replay", []Event{ReplayStart}},
	{"Scan", []Event{ScanStart}},
	{"Attack", []Event{AttackStart}},
	{"Abort", []Event{Abort}},
	{"Shutdown", []Event{ScanStart, RecordToggle}},
}

// Console replaces the push buttons with an interactive menu on a terminal.
type Console struct {
	*Chan

	Stdin  io.ReadCloser
	Stdout io.WriteCloser
	log    *slog.Logger
}

func NewConsole(stdin io.ReadCloser, stdout io.WriteCloser, log *slog.Logger) *Console {
	return &Console{
		Chan:   NewChan(len(menu) * 2),
		Stdin:  stdin,
		Stdout: stdout,
		log:    log,
	}
}

// Start runs the menu loop in the background. Interrupting the prompt
// (CTRL+C, CTRL+D) or ending ctx closes the source.
func (c *Console) Start(ctx context.Context) {
	c.closeOnDone(ctx)
	go func() {
		defer c.Close()
		for ctx.Err() == nil {
			idx, err := c.prompt()
			if err != nil {
				if !errors.Is(err, promptui.ErrInterrupt) && !errors.Is(err, promptui.ErrEOF) {
					c.log.Error("menu failed", "err", err)
				}
				return
			}
			for _, ev := range menu[idx].Events {
				if !c.Send(ev) {
					return
				}
			}
		}
	}()
}

func (c *Console) prompt() (int, error) {
	sel := promptui.Select{
		Label: "Radio Hack Box",
		Items: menu,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ .Label | cyan }}",
			Inactive: "  {{ .Label }}",
			Selected: "{{ .Label | green }}",
		},
		Size:   len(menu),
		Stdin:  c.Stdin,
		Stdout: c.Stdout,
	}
	idx, _, err := sel.Run()
	return idx, err
}
