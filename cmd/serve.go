package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is :$PORT or :3000)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap()
	defer logger.Sync()

	logger.Info("starting the scholarship-matcher", zap.String("version", version))

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the record store", zap.Error(err))
	}
	defer db.Close()

	service := newMatchService(ctx, config, db, logger)
	srv := server.New(listenAddress(config), db, service, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server failed", zap.Error(err))
		return
	}

	logger.Info("exiting", zap.String("reason", "shutdown complete"))
}
