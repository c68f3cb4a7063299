package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-hal/demo"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/runtime"
)

var runOpts struct {
	demo        bool
	interactive bool
	trace       string
	cycles      uint32
	delay       uint32
}

var runCmd = &cobra.Command{
	Use:   "run [guest.wasm]",
	Short: "Load, link and run a guest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bin, name, err := guestBinary(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runOpts.trace != "" {
			cfg.Trace.Path = runOpts.trace
		}

		if runOpts.interactive {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return runDashboard(cfg, name, bin)
			}
			fmt.Fprintln(os.Stderr, "stdout is not a terminal, running without dashboard")
		}

		log, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()
		setupLogging(log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		rt, err := runtime.New(ctx, cfg,
			runtime.WithLogger(log),
			runtime.WithDiagnostics(os.Stdout),
			runtime.WithSimOptions(sim.WithUARTTap(&prefixWriter{prefix: "uart> ", w: os.Stderr})))
		if err != nil {
			return err
		}
		defer rt.Close(context.WithoutCancel(ctx))

		log.Info("running guest", zap.String("guest", name), zap.Int("bytes", len(bin)))
		if err := rt.RunWASM(ctx, bin); err != nil {
			return err
		}
		log.Info("guest returned", zap.Uint64("calls", rt.Host().Snapshot().Calls))
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.demo, "demo", false, "run the built-in demo guest")
	f.BoolVarP(&runOpts.interactive, "interactive", "i", false, "show a live board dashboard")
	f.StringVar(&runOpts.trace, "trace", "", "write a CBOR call trace to this file")
	f.Uint32Var(&runOpts.cycles, "cycles", demo.DefaultOptions().Cycles, "demo blink cycles")
	f.Uint32Var(&runOpts.delay, "delay", demo.DefaultOptions().DelayMs, "demo half-cycle delay in ms")
}

func guestBinary(args []string) ([]byte, string, error) {
	if runOpts.demo {
		if len(args) > 0 {
			return nil, "", fmt.Errorf("--demo takes no guest file")
		}
		opts := demo.DefaultOptions()
		opts.Cycles, opts.DelayMs = runOpts.cycles, runOpts.delay
		return demo.Blink(opts), "demo", nil
	}
	if len(args) == 0 {
		return nil, "", fmt.Errorf("a guest file or --demo is required")
	}
	bin, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return bin, args[0], nil
}

// prefixWriter starts every line with prefix.
type prefixWriter struct {
	w      io.Writer
	prefix string
	mid    bool
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	for _, c := range b {
		if !p.mid {
			if _, err := io.WriteString(p.w, p.prefix); err != nil {
				return 0, err
			}
			p.mid = true
		}
		if _, err := p.w.Write([]byte{c}); err != nil {
			return 0, err
		}
		if c == '\n' {
			p.mid = false
		}
	}
	return len(b), nil
}
