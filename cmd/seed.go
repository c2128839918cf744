package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace stored students and scholarships with the seed files",
	Run: func(_ *cobra.Command, _ []string) {
		runSeed()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("students", "s", "", "students seed file (.json, .yaml or .yml)")
	seedCmd.Flags().StringP("scholarships", "c", "", "scholarships seed file (.json, .yaml or .yml)")

	viper.BindPFlag("seed.students", seedCmd.Flags().Lookup("students"))
	viper.BindPFlag("seed.scholarships", seedCmd.Flags().Lookup("scholarships"))
}

func runSeed() {
	ctx := context.Background()

	logger, config := bootstrap()
	defer logger.Sync()

	logger.Info("loading seed files",
		zap.String("students", config.Seed.Students),
		zap.String("scholarships", config.Seed.Scholarships),
	)

	data, err := seed.Load(config.Seed.Students, config.Seed.Scholarships)
	if err != nil {
		logger.Fatal("loading seed files", zap.Error(err))
	}

	db, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the record store", zap.Error(err))
	}
	defer db.Close()

	if err := db.ReplaceAll(ctx, data.Students, data.Scholarships); err != nil {
		logger.Fatal("storing seed data", zap.Error(err))
	}

	logger.Info("seed complete",
		zap.Int("students", len(data.Students)),
		zap.Int("scholarships", len(data.Scholarships)),
	)
}
