package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cramblehq/cramble/internal/selfupdate"
	"github.com/spf13/cobra"
)

var updateToVersion string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update cramble to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		checker := selfupdate.NewChecker(selfupdate.WithTimeout(2 * time.Minute))
		err := checker.Update(ctx, &selfupdate.UpdateInput{
			CurrentVersion: resolveVersion(),
			TargetVersion:  updateToVersion,
		}, func(msg string) { fmt.Println(msg) })

		switch {
		case err == nil:
			return nil
		case errors.Is(err, selfupdate.ErrDevBuild):
			fmt.Println("This is a development build. Install a release build to use self-update.")
			return nil
		case errors.Is(err, selfupdate.ErrAlreadyLatest):
			fmt.Println("Already running the latest version.")
			return nil
		case os.IsPermission(err):
			return fmt.Errorf("%w\n\nTry running: sudo cramble update", err)
		}
		return err
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateToVersion, "version", "", "update to a specific release tag instead of the latest")
}
