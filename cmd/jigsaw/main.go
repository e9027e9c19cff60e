package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lyz-njeri/Jigsaw-game/cmd/jigsaw/commands"
	"github.com/lyz-njeri/Jigsaw-game/logger"
)

var rootCmd = &cobra.Command{
	Use:   "jigsaw",
	Short: "Jigsaw - adaptive hint engine for image-reconstruction puzzles",
	Long: `Jigsaw - adaptive hint engine for image-reconstruction puzzles.

The engine analyzes a puzzle image once, tracks placement progress, and
serves context-aware hints whose strategy adapts to how far along the
solve is.

Available commands:
  serve   - Start the HTTP/WebSocket puzzle server
  analyze - Inspect the composition analysis of an image
  levels  - List built-in levels and their leaderboards
  db      - Manage the puzzle database

Examples:
  jigsaw serve                     # Start the server
  jigsaw analyze sunset.png        # Show composition analysis
  jigsaw levels --scores           # Levels with top scores
  jigsaw db stats                  # Database statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AnalyzeCmd)
	rootCmd.AddCommand(commands.LevelsCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
