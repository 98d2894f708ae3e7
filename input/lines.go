package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseCommand maps a control name (case insensitive) to its events.
// "shutdown" is the SCAN+RECORD gesture.
func ParseCommand(word string) ([]Event, error) {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "record", "r":
		return []Event{RecordToggle}, nil
	case "replay", "p":
		return []Event{ReplayStart}, nil
	case "scan", "s":
		return []Event{ScanStart}, nil
	case "attack", "a":
		return []Event{AttackStart}, nil
	case "abort", "x":
		return []Event{Abort}, nil
	case "shutdown":
		return []Event{ScanStart, RecordToggle}, nil
	}
	return nil, fmt.Errorf("unknown command %q", word)
}

// Lines reads one control name per line, for headless or scripted use.
type Lines struct {
	*Chan

	r   io.Reader
	log *slog.Logger
}

func NewLines(r io.Reader, log *slog.Logger) *Lines {
	return &Lines{Chan: NewChan(16), r: r, log: log}
}

// Start reads until EOF, then closes the source. The source is also closed
// when ctx is done.
func (l *Lines) Start(ctx context.Context) {
	l.closeOnDone(ctx)
	go func() {
		defer l.Close()
		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() && ctx.Err() == nil {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			evs, err := ParseCommand(line)
			if err != nil {
				l.log.Warn("ignoring input", "err", err)
				continue
			}
			for _, ev := range evs {
				if !l.Send(ev) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			l.log.Error("reading input", "err", err)
		}
	}()
}
