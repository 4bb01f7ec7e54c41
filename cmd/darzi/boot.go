package main

import (
	"context"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/darzi-app/darzi/internal/bootstrap"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/reqid"
)

// run boots the application for one command and tags its context with an
// operation id.
func run(fn func(ctx context.Context, app *bootstrap.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger.SetOutput(os.Stderr)
		ctx := reqid.Start(cmd.Context())

		app, err := bootstrap.Boot(ctx)
		if err != nil {
			return err
		}
		defer app.Close(context.WithoutCancel(ctx))
		return fn(ctx, app, args)
	}
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
}

// dateLayout is how dates are entered on the command line.
const dateLayout = "2006-01-02"
