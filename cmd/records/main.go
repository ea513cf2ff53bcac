package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schoolrecords/internal/config"
	"schoolrecords/internal/logging"
)

var (
	configPath string
	envFile    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage student and teacher accounts",
	Long: `records creates and authenticates school accounts.

Every account is a user row plus a student or teacher row sharing one ID.
IDs come from a counter persisted in a side file (or Redis) and mirrored in
the database, so run "records migrate" once before anything else.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "records.yaml", "YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file (optional)")

	studentCmd.AddCommand(studentAddCmd)
	teacherCmd.AddCommand(teacherAddCmd)
	rootCmd.AddCommand(
		migrateCmd,
		studentCmd,
		teacherCmd,
		loginCmd,
		profileCmd,
		passwdCmd,
		resetPasswordCmd,
		clearCmd,
		countsCmd,
		importCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "records:", err)
		os.Exit(1)
	}
}
