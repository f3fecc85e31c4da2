package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	archName string
	jsonOut  bool
	verbose  bool
	log      = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "symbexctl",
	Short: "Drive a symbolic execution session over a recorded instruction trace",
	Long: `symbexctl processes an already-disassembled instruction trace
(see internal/trace for the wire format) through the facade package's
Session: each record is lifted, its taint and symbolic state tracked,
and any path constraints a conditional jump records are reported.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&archName, "arch", "x86-64", "target architecture (x86-64, aarch64)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit machine-readable JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	log.SetOutput(os.Stderr)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
