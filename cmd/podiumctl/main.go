// Package main provides podiumctl, the operator CLI for the podium engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/podium-engine/internal/betting"
	"github.com/yourusername/podium-engine/internal/config"
	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/events"
	"github.com/yourusername/podium-engine/internal/logger"
	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/odds"
	"github.com/yourusername/podium-engine/internal/progression"
	"github.com/yourusername/podium-engine/internal/rating"
	"github.com/yourusername/podium-engine/internal/repository"
	"github.com/yourusername/podium-engine/internal/service"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(settleWeekCmd)
	rootCmd.AddCommand(recomputeOddsCmd)
	rootCmd.AddCommand(softResetCmd)
	rootCmd.AddCommand(rankingsCmd)

	rankingsCmd.Flags().Int("month", 0, "Calendar month (1-12), defaults to last month")
	rankingsCmd.Flags().Int("year", 0, "Calendar year, defaults to last month's year")
	settleWeekCmd.Flags().String("week", "", "Week ID to settle (defaults to the current week)")
}

var rootCmd = &cobra.Command{
	Use:   "podiumctl",
	Short: "Operator commands for the podium engine",
	Long:  `Administrative operations: week settlement, odds recompute, soft reset and leaderboards.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return fmt.Errorf("failed to set up dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	appLog = logger.NewLogger("warn", cfg.App.Environment)
	metrics.InitRegistry()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err = database.NewDB(ctx, cfg.GetDatabaseDSN(), int32(cfg.Database.MaxConnections))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

// buildSettler wires the settlement path the same way the daemon does
func buildSettler() *betting.Settler {
	bus := events.NewBus(appLog)
	audit := logger.NewAuditLogger(appLog)
	tracker := progression.NewTracker(repos.Streak, bus, appLog)
	engine := odds.NewEngine(repos.Competitor, repos.Odds, odds.NewSnapshotCache(), bus, odds.Config{
		Trials:  cfg.Odds.Trials,
		Seed:    cfg.Odds.Seed,
		Workers: cfg.Odds.Workers,
	}, appLog)
	return betting.NewSettler(repos.Week, repos.Bet, repos.Competitor, repos.Odds, engine, tracker, bus, audit, appLog)
}

func currentWeek(ctx context.Context) (*models.BettingWeek, error) {
	audit := logger.NewAuditLogger(appLog)
	cycle := betting.NewCycle(repos.Week, audit, appLog)
	return cycle.EnsureCurrentWeek(ctx, time.Now().UTC())
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current betting week and engine state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		week, err := currentWeek(ctx)
		if err != nil {
			return err
		}

		eligible, err := repos.Competitor.GetEligible(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Current week:  %s\n", week.ID)
		fmt.Printf("  Status:      %s\n", week.Status)
		fmt.Printf("  Week number: %d\n", week.SeasonWeekNumber)
		fmt.Printf("  Starts:      %s\n", week.StartDate.Format(time.RFC3339))
		fmt.Printf("  Ends:        %s\n", week.EndDate.Format(time.RFC3339))
		fmt.Printf("Eligible competitors: %d\n", len(eligible))

		snapshot, err := repos.Odds.GetLatestSnapshot(ctx, week.ID)
		if err != nil {
			fmt.Println("Latest odds:   none")
			return nil
		}
		fmt.Printf("Latest odds:   %s (%d entries, computed %s)\n",
			snapshot.ID, len(snapshot.Entries), snapshot.ComputedAt.Format(time.RFC3339))
		return nil
	},
}

var settleWeekCmd = &cobra.Command{
	Use:   "settle-week",
	Short: "Finalize a closed week and settle its bets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		weekFlag, _ := cmd.Flags().GetString("week")
		var weekID uuid.UUID
		if weekFlag != "" {
			parsed, err := uuid.Parse(weekFlag)
			if err != nil {
				return fmt.Errorf("invalid week id: %w", err)
			}
			weekID = parsed
		} else {
			week, err := currentWeek(ctx)
			if err != nil {
				return err
			}
			weekID = week.ID
		}

		bets, err := buildSettler().FinalizeWeek(ctx, weekID)
		if err != nil {
			if errors.Is(err, models.ErrAlreadySettled) {
				fmt.Printf("Week %s was settled by a concurrent trigger\n", weekID)
				return nil
			}
			return err
		}

		fmt.Printf("Week %s settled: %d bets\n", weekID, len(bets))
		for _, bet := range bets {
			fmt.Printf("  %s  user=%s  status=%s  points=%s  perfect=%v\n",
				bet.ID, bet.UserID, bet.Status, bet.PointsEarned.String(), bet.IsPerfectPodium)
		}
		return nil
	},
}

var recomputeOddsCmd = &cobra.Command{
	Use:   "recompute-odds",
	Short: "Recompute and persist odds for the current week",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		week, err := currentWeek(ctx)
		if err != nil {
			return err
		}

		engine := odds.NewEngine(repos.Competitor, repos.Odds, odds.NewSnapshotCache(), nil, odds.Config{
			Trials:  cfg.Odds.Trials,
			Seed:    cfg.Odds.Seed,
			Workers: cfg.Odds.Workers,
		}, appLog)

		snapshot, err := engine.Recompute(ctx, week.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Snapshot %s for week %s (%d entries, %d trials)\n",
			snapshot.ID, week.ID, len(snapshot.Entries), snapshot.Trials)
		for _, entry := range snapshot.Entries {
			fmt.Printf("  %s  1st=%.2f  2nd=%.2f  3rd=%.2f\n",
				entry.CompetitorID, entry.OddFirst, entry.OddSecond, entry.OddThird)
		}
		return nil
	},
}

var softResetCmd = &cobra.Command{
	Use:   "soft-reset",
	Short: "Apply the monthly rating soft reset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		softReset := rating.NewSoftReset(repos.Competitor, repos.Race, repos.SoftReset, appLog)
		if err := softReset.Apply(ctx, time.Now().UTC()); err != nil {
			return err
		}

		fmt.Println("Soft reset applied (or already done this month)")
		return nil
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Print the bettor leaderboard for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		month, _ := cmd.Flags().GetInt("month")
		year, _ := cmd.Flags().GetInt("year")
		if month == 0 || year == 0 {
			lastMonth := time.Now().UTC().AddDate(0, -1, 0)
			month = int(lastMonth.Month())
			year = lastMonth.Year()
		}

		rankings := service.NewRankingsService(repos.Competitor, repos.Bet, appLog)
		rows, err := rankings.GetMonthlyRankings(ctx, time.Month(month), year)
		if err != nil {
			return err
		}

		fmt.Printf("Bettor rankings %04d-%02d:\n", year, month)
		for _, row := range rows {
			fmt.Printf("  #%-3d %s  points=%s  won=%d  lost=%d  perfect=%d\n",
				row.Rank, row.UserID, row.TotalPoints.String(), row.BetsWon, row.BetsLost, row.PerfectPodium)
		}
		return nil
	},
}
