// Command symbexplorer is an interactive TUI for stepping through a
// recorded instruction trace one instruction at a time, watching the
// facade package's register, taint and path-constraint state evolve.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/symbex/internal/trace"
	"github.com/joshuapare/symbex/pkg/arch"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Args[1] == "--help" || os.Args[1] == "-h" {
		printHelp()
		return
	}

	tracePath := os.Args[1]
	data, err := os.ReadFile(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read trace: %v\n", err)
		os.Exit(1)
	}
	records, err := trace.DecodeAll(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to decode trace: %v\n", err)
		os.Exit(1)
	}

	m := NewModel(records, arch.X8664)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: symbexplorer <trace-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'symbexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("symbexplorer - step through a recorded instruction trace")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  symbexplorer <trace-file>")
	fmt.Println()
	fmt.Println("NAVIGATION:")
	fmt.Println("  n, space    step forward one instruction")
	fmt.Println("  N, b        step backward one instruction (replays from the start)")
	fmt.Println("  tab         switch focused pane")
	fmt.Println("  q           quit")
	fmt.Println()
	fmt.Println("For non-interactive processing, use the 'symbexctl' command instead.")
}
