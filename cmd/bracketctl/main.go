// Command bracketctl runs the bracket engine on JSON files, without a database.
//
// Usage:
//
//	bracketctl seed
//	bracketctl draw --teams teams.json --groups 4 --pots pots.json --seed <hex>
//	bracketctl build --stage stage.json --teams teams.json --draw draw.json
//	bracketctl result --bracket bracket.json --match R1M1 --score 2:1
//	bracketctl standings --bracket bracket.json --teams teams.json
//	bracketctl conflicts --bracket bracket.json --duration 60m
//	bracketctl token --user 1 --role organizer --ttl 24h
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/draw"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/progression"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/Dosada05/tournament-engine/scheduling"
	"github.com/Dosada05/tournament-engine/standings"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var out string
	root := &cobra.Command{
		Use:          "bracketctl",
		Short:        "Tournament bracket engine CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&out, "out", "o", "", "Write JSON output to a file instead of stdout")

	root.AddCommand(seedCmd(&out))
	root.AddCommand(drawCmd(&out))
	root.AddCommand(buildCmd(&out))
	root.AddCommand(resultCmd(&out))
	root.AddCommand(standingsCmd(&out))
	root.AddCommand(conflictsCmd(&out))
	root.AddCommand(tokenCmd())
	return root
}

func seedCmd(out *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Generate a fresh draw seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := random.NewSeed()
			if err != nil {
				return err
			}
			return writeJSON(*out, map[string]string{"seed": seed.String()})
		},
	}
}

func drawCmd(out *string) *cobra.Command {
	var teamsPath, potsPath, seedHex string
	var groups int
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw teams into round robin groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			var teams []models.Team
			if err := readJSON(teamsPath, &teams); err != nil {
				return err
			}
			var pots map[int]int
			if potsPath != "" {
				if err := readJSON(potsPath, &pots); err != nil {
					return err
				}
			}

			var (
				result draw.Result
				err    error
			)
			if seedHex != "" {
				result, err = draw.Replay(teams, pots, groups, seedHex)
			} else {
				var seed random.Seed
				if seed, err = random.NewSeed(); err != nil {
					return err
				}
				result, err = draw.RunDraw(teams, pots, groups, seed)
			}
			if err != nil {
				return err
			}
			logger.Info("draw finished", "seed", result.Seed, "groups", result.GroupCount, "teams", len(teams))
			return writeJSON(*out, result)
		},
	}
	cmd.Flags().StringVar(&teamsPath, "teams", "", "Teams JSON file")
	cmd.Flags().StringVar(&potsPath, "pots", "", "Pots JSON file (team ID -> pot)")
	cmd.Flags().StringVar(&seedHex, "seed", "", "Replay a draw from this hex seed")
	cmd.Flags().IntVar(&groups, "groups", 2, "Number of groups")
	_ = cmd.MarkFlagRequired("teams")
	return cmd
}

func buildCmd(out *string) *cobra.Command {
	var stagePath, teamsPath, drawPath string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the match graph of a stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stage models.Stage
			if err := readJSON(stagePath, &stage); err != nil {
				return err
			}
			var teams []models.Team
			if err := readJSON(teamsPath, &teams); err != nil {
				return err
			}
			params := brackets.GenerateBracketParams{Stage: stage, Teams: models.OrderTeams(teams)}
			if drawPath != "" {
				var result draw.Result
				if err := readJSON(drawPath, &result); err != nil {
					return err
				}
				params.Groups = result.Groups()
			}

			b, err := brackets.BuildBracket(cmd.Context(), params)
			if err != nil {
				return err
			}
			logger.Info("bracket built", "format", stage.Format, "matches", len(b.Matches))
			return writeJSON(*out, b)
		},
	}
	cmd.Flags().StringVar(&stagePath, "stage", "", "Stage JSON file")
	cmd.Flags().StringVar(&teamsPath, "teams", "", "Teams JSON file")
	cmd.Flags().StringVar(&drawPath, "draw", "", "Draw result JSON file for round robin stages")
	_ = cmd.MarkFlagRequired("stage")
	_ = cmd.MarkFlagRequired("teams")
	return cmd
}

func resultCmd(out *string) *cobra.Command {
	var bracketPath, matchUID, score string
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Record a result and write the updated bracket",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBracket(bracketPath)
			if err != nil {
				return err
			}
			var a, bScore int
			if _, err := fmt.Sscanf(score, "%d:%d", &a, &bScore); err != nil {
				return fmt.Errorf("invalid --score %q, want A:B: %w", score, err)
			}

			outcome, err := progression.New(b).ApplyResult(matchUID, a, bScore)
			if err != nil {
				return err
			}
			for _, r := range outcome.Reports {
				logger.Warn("match needs attention", "match", r.MatchUID, "reason", r.Reason)
			}
			logger.Info("result recorded", "match", matchUID, "changed", len(outcome.Changed), "stage_complete", outcome.StageComplete)

			target := *out
			if target == "" {
				target = bracketPath
			}
			return writeJSON(target, b)
		},
	}
	cmd.Flags().StringVar(&bracketPath, "bracket", "", "Bracket JSON file")
	cmd.Flags().StringVar(&matchUID, "match", "", "Match UID, e.g. R1M1 or LB-R2M1")
	cmd.Flags().StringVar(&score, "score", "", "Score as A:B")
	_ = cmd.MarkFlagRequired("bracket")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func standingsCmd(out *string) *cobra.Command {
	var bracketPath, teamsPath string
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Rank the groups of a round robin bracket",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBracket(bracketPath)
			if err != nil {
				return err
			}
			var teams []models.Team
			if teamsPath != "" {
				if err := readJSON(teamsPath, &teams); err != nil {
					return err
				}
			}
			return writeJSON(*out, standings.ComputeGroupStandings(standings.GroupsOf(b.Matches), teams, b.Matches))
		},
	}
	cmd.Flags().StringVar(&bracketPath, "bracket", "", "Bracket JSON file")
	cmd.Flags().StringVar(&teamsPath, "teams", "", "Teams JSON file for names and seeds")
	_ = cmd.MarkFlagRequired("bracket")
	return cmd
}

func conflictsCmd(out *string) *cobra.Command {
	var bracketPath string
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List scheduling conflicts of a bracket",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBracket(bracketPath)
			if err != nil {
				return err
			}
			conflicts := scheduling.DetectConflicts(b.Matches, duration)
			logger.Info("conflict check finished", "conflicts", len(conflicts))
			return writeJSON(*out, conflicts)
		},
	}
	cmd.Flags().StringVar(&bracketPath, "bracket", "", "Bracket JSON file")
	cmd.Flags().DurationVar(&duration, "duration", scheduling.DefaultMatchDuration, "Match duration")
	_ = cmd.MarkFlagRequired("bracket")
	return cmd
}

func tokenCmd() *cobra.Command {
	var userID int
	var role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with JWT_SECRET_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET_KEY")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET_KEY is required")
			}
			token, err := middleware.IssueToken(secret, userID, middleware.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&userID, "user", 1, "User ID")
	cmd.Flags().StringVar(&role, "role", string(middleware.RoleOrganizer), "Role: admin, organizer or player")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func loadBracket(path string) (*brackets.Bracket, error) {
	var raw brackets.Bracket
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	b, err := brackets.Restore(raw.StageIndex, raw.Format, raw.Matches, nil)
	if err != nil {
		return nil, fmt.Errorf("restore bracket %s: %w", path, err)
	}
	b.Corrections = raw.Corrections
	return b, nil
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
