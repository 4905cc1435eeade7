package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vesper/internal/prof"
	"vesper/internal/version"
)

var profSession *prof.Session

var rootCmd = &cobra.Command{
	Use:   "vesper",
	Short: "Vesper semantic core",
	Long:  `Vesper resolves signatures and virtual dispatch tables for declaration manifests`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cpuPath, _ := cmd.Flags().GetString("cpuprofile")
		memPath, _ := cmd.Flags().GetString("memprofile")
		s, err := prof.Start(cpuPath, memPath)
		if err != nil {
			return err
		}
		profSession = s
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return profSession.Stop()
	},
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = project default)")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to the given path")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to the given path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tri-state against the terminal.
func useColor(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}
