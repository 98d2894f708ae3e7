package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mame82/radiohackbox/config"
	"github.com/mame82/radiohackbox/display"
	"github.com/mame82/radiohackbox/engine"
	"github.com/mame82/radiohackbox/hackbox"
	"github.com/mame82/radiohackbox/input"
	"github.com/mame82/radiohackbox/keyboard"
	"github.com/mame82/radiohackbox/logging"
	"github.com/mame82/radiohackbox/power"
	"github.com/mame82/radiohackbox/radio"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	pcapPath   string
	console    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the hack box",
		Long: "Acquire the dongle and start scanning for a keyboard.\n" +
			"Controls are read from stdin, one per line (record, replay, scan, attack,\n" +
			"abort, shutdown), or from an interactive menu with --console.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML file overriding the built-in settings")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	f.StringVar(&opts.pcapPath, "pcap", "", "dump all received and sent frames to this pcap file")
	f.BoolVar(&opts.console, "console", false, "interactive menu instead of line based input")
	return cmd
}

func newLogger(opts runOptions, w io.Writer) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(opts.logFormat)
	if err != nil {
		return nil, err
	}
	cfg := logging.DefaultConfig()
	cfg.Level, cfg.Format = lvl, format
	return logging.New(cfg, w), nil
}

func run(ctx context.Context, opts runOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := newLogger(opts, stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hw, err := hackbox.Acquire(hackbox.Opener{
		Display: func() (display.Display, error) {
			return display.NewConsole(stdout), nil
		},
		Radio: func() (radio.Transceiver, error) {
			return openRadio(cfg, opts.pcapPath, log)
		},
		Input: func() (input.Source, error) {
			return openInput(ctx, opts.console, stdin, stdout, log)
		},
		Power: power.NewSwitch(cfg.Shutdown.Command, log),
	})
	if err != nil {
		return err
	}
	defer hw.Close()

	if err := hw.Blink(ctx, engine.RealClock(), cfg.UI.BlinkCount, cfg.UI.BlinkDelay.Duration); err != nil {
		return err
	}

	m := hackbox.New(hw, cfg, keyboard.XORCodec{}, nil, log)
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("bye")
	return nil
}

func openRadio(cfg *config.Config, pcapPath string, log *slog.Logger) (radio.Transceiver, error) {
	d, err := radio.NewNRF24(log)
	if err != nil {
		return nil, err
	}
	d.RetransmitDelay = cfg.Radio.RetransmitDelay
	d.RetransmitCount = cfg.Radio.RetransmitCount

	if cfg.Radio.EnableLNA {
		if err := d.EnableLNA(); err != nil {
			d.Close()
			return nil, fmt.Errorf("enable LNA: %w", err)
		}
	}
	if ch, err := d.GetChannel(); err == nil {
		log.Info("dongle ready", "channel", ch, "retransmit_delay", d.RetransmitDelay, "retransmit_count", d.RetransmitCount)
	} else {
		log.Warn("reading channel", "err", err)
	}
	if pcapPath == "" {
		return d, nil
	}

	out, err := os.Create(pcapPath)
	if err != nil {
		d.Close()
		return nil, err
	}
	tap, err := radio.NewTap(d, out)
	if err != nil {
		out.Close()
		d.Close()
		return nil, err
	}
	log.Info("dumping frames", "file", pcapPath)
	return tap, nil
}

func openInput(ctx context.Context, console bool, stdin io.Reader, stdout io.Writer, log *slog.Logger) (input.Source, error) {
	if !console {
		l := input.NewLines(stdin, log)
		l.Start(ctx)
		return l, nil
	}

	in, ok := stdin.(io.ReadCloser)
	if !ok {
		in = io.NopCloser(stdin)
	}
	out, ok := stdout.(io.WriteCloser)
	if !ok {
		return nil, errors.New("console menu needs a terminal on stdout")
	}
	c := input.NewConsole(in, out, log)
	c.Start(ctx)
	return c, nil
}
