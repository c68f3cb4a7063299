package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/abi/code"
)

var abiCodes bool

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "List the host functions and result codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if abiCodes {
			fmt.Fprintln(out, codeTable().Render())
			return nil
		}
		fmt.Fprintln(out, funcTable().Render())
		return nil
	},
}

func init() {
	abiCmd.Flags().BoolVar(&abiCodes, "codes", false, "list result codes instead of functions")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func styled(t *table.Table) *table.Table {
	return t.Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func funcTable() *table.Table {
	t := styled(table.New().Headers("#", "import", "params", "result", "core"))
	for _, fn := range abi.Funcs() {
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Name + ": " + abi.TypeName(p.Type)
			if p.Pointer {
				params[i] += "*"
			}
		}
		result := "-"
		if fn.HasResult() {
			result = abi.TypeName(fn.Result)
		}
		t.Row(fmt.Sprint(uint32(fn.Index)), abi.ModuleName+"."+fn.Name,
			strings.Join(params, ", "), result, fn.Signature())
	}
	return t
}

func codeTable() *table.Table {
	t := styled(table.New().Headers("code", "name"))
	for _, c := range code.All() {
		t.Row(fmt.Sprint(int32(c)), c.String())
	}
	return t
}
