// Command wasmhal runs WebAssembly guests against a simulated or real
// board.
//
//	wasmhal run guest.wasm            run a guest to completion
//	wasmhal run --demo -i             run the built-in demo with a live dashboard
//	wasmhal abi                       list the host functions guests may import
//	wasmhal trace calls.cbor          print a recorded call trace
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/config"
	"github.com/wippyai/wasm-hal/engine"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/trace"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "wasmhal",
	Short:         "Run WebAssembly guests that drive GPIO and UART",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.AddCommand(runCmd, abiCmd, traceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// setupLogging installs l as the default logger of every package that
// logs.
func setupLogging(l *zap.Logger) {
	host.SetLogger(l)
	engine.SetLogger(l)
	trace.SetLogger(l)
}
