package cmd

import (
	"fmt"
	"os"

	"scanmate/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "scanmate",
	Short: "Handheld inventory reconciliation engine",
	Long: `Scanmate counts stock on a handheld scanner and reconciles it against an
expected dataset. It keeps one store per mode (standard, loots), logs every
count change and syncs with the inventory service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the development config gives ISO8601 timestamps
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

// modeFlag is shared by every command working on one mode.
var modeFlag string

func init() {
	RootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "standard", "Inventory mode (standard or loots)")
}
