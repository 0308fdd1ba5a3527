package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncSession  int
	syncEmployee int
)

// syncCmd is the parent command for remote session operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange data with the inventory service",
	Long: `Downloads session data into a mode or uploads a mode's counts and logs.
Session and employee default to remote.session_id and remote.employee_id.`,
}

var syncEmployeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List the employees of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(func(ctx context.Context, eng *engine) error {
			employees, err := eng.session().Employees(ctx, syncSession)
			if err != nil {
				return err
			}
			for _, e := range employees {
				fmt.Printf("%d\t%s\n", e.ID, e.Name)
			}
			return nil
		})
	},
}

var syncDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Replace a mode's dataset with the session's rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(func(ctx context.Context, eng *engine) error {
			mode, err := eng.mode()
			if err != nil {
				return err
			}
			res, err := eng.session().Download(ctx, mode, syncSession, syncEmployee)
			if err != nil {
				return err
			}
			if res.Imported == 0 {
				eng.logger.Warn("Session data unavailable, dataset left unchanged")
				return nil
			}
			eng.logger.Info("Session data imported", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
			return nil
		})
	},
}

var syncUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Submit a mode's counts and logs to the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(func(ctx context.Context, eng *engine) error {
			mode, err := eng.mode()
			if err != nil {
				return err
			}
			res, err := eng.session().Upload(ctx, mode, syncSession, syncEmployee)
			if err != nil {
				return err
			}
			eng.logger.Info("Upload accepted", zap.Int("updated", res.Updated))
			return nil
		})
	},
}

func init() {
	syncCmd.PersistentFlags().IntVar(&syncSession, "session", 0, "Remote session id")
	syncCmd.PersistentFlags().IntVar(&syncEmployee, "employee", 0, "Remote employee id")

	syncCmd.AddCommand(syncEmployeesCmd, syncDownloadCmd, syncUploadCmd)
	RootCmd.AddCommand(syncCmd)
}

func withSync(fn func(ctx context.Context, eng *engine) error) error {
	ctx := context.Background()
	eng, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(ctx)
	return fn(ctx, eng)
}
