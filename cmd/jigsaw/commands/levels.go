package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lyz-njeri/Jigsaw-game/session"
)

// LevelsCmd lists the built-in level catalog.
var LevelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List built-in levels and their leaderboards",
	RunE:  runLevels,
}

var levelsShowScores bool

func init() {
	LevelsCmd.Flags().BoolVar(&levelsShowScores, "scores", false, "Include top scores from the database")
}

func runLevels(cmd *cobra.Command, args []string) error {
	rows := pterm.TableData{{"ID", "Name", "Difficulty", "Grid", "Base points"}}
	for _, l := range session.Levels() {
		rows = append(rows, []string{
			l.ID,
			l.Name,
			fmt.Sprintf("%d", l.Difficulty),
			fmt.Sprintf("%dx%d", l.GridSize.Rows, l.GridSize.Cols),
			fmt.Sprintf("%d", l.BasePoints),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}

	if !levelsShowScores {
		return nil
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	store := session.NewStore(database)
	for _, l := range session.Levels() {
		scores, err := store.TopScores(l.ID, 5)
		if err != nil {
			return err
		}
		if len(scores) == 0 {
			continue
		}

		pterm.DefaultSection.WithLevel(2).Printf("%s leaderboard", l.Name)
		scoreRows := pterm.TableData{{"Score", "Hints", "Duration", "Recorded"}}
		for _, s := range scores {
			scoreRows = append(scoreRows, []string{
				fmt.Sprintf("%d", s.Score),
				fmt.Sprintf("%d", s.HintsUsed),
				fmt.Sprintf("%ds", s.DurationSeconds),
				s.RecordedAt.Format("2006-01-02 15:04"),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(scoreRows).Render(); err != nil {
			return err
		}
	}
	return nil
}
