package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/trace"
)

var traceSummary bool

var traceCmd = &cobra.Command{
	Use:   "trace <file.cbor>",
	Short: "Print a recorded call trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		r, err := trace.NewReader(f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		h := r.Header()
		fmt.Fprintf(out, "trace v%d, %d host functions, started %s\n",
			h.Version, len(h.Funcs), time.Unix(0, h.Start).Format(time.RFC3339))

		if traceSummary {
			return summarize(out, r)
		}
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, rec)
		}
	},
}

func init() {
	traceCmd.Flags().BoolVarP(&traceSummary, "summary", "s", false, "print per-function totals only")
}

type funcStats struct {
	name     string
	calls    int
	failures map[code.Code]int
	total    time.Duration
}

func summarize(out io.Writer, r *trace.Reader) error {
	stats := make(map[string]*funcStats)
	recs, err := r.ReadAll()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		s, ok := stats[rec.Name]
		if !ok {
			s = &funcStats{name: rec.Name, failures: make(map[code.Code]int)}
			stats[rec.Name] = s
		}
		s.calls++
		s.total += time.Duration(rec.Duration)
		if rec.HasResult && rec.Code() != code.OK {
			s.failures[rec.Code()]++
		}
	}

	names := make([]string, 0, len(stats))
	for n := range stats {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s := stats[n]
		fmt.Fprintf(out, "%-12s %6d calls %12s", s.name, s.calls, s.total)
		for _, c := range code.All() {
			if n := s.failures[c]; n > 0 {
				fmt.Fprintf(out, "  %s=%d", c, n)
			}
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d calls total\n", len(recs))
	return nil
}
