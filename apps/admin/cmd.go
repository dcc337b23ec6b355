package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/storage"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf     *core.Config
	store    *storage.Storage
	points   *points.Service
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "TeamPoints administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(&cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(args)
		},
	})

	cmdSeed := &cobra.Command{
		Use:   "seed",
		Short: "load instructors, students, courses and projects from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.seed(cmd.Context(), path)
		},
	}
	cmdSeed.Flags().StringP("file", "f", "", "path to the roster YAML file")
	root.AddCommand(cmdSeed)

	cmdToken := &cobra.Command{
		Use:   "token",
		Short: "mint an API token for a caller (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			role, _ := cmd.Flags().GetString("role")
			email, _ := cmd.Flags().GetString("email")
			if id == "" || role == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.token(id, role, email)
		},
	}
	cmdToken.Flags().String("id", "", "the caller's id")
	cmdToken.Flags().String("role", "", "the caller's role: instructor|student")
	cmdToken.Flags().String("email", "", "the caller's email")
	root.AddCommand(cmdToken)

	cmdSettle := &cobra.Command{
		Use:   "settle",
		Short: "recompute the scaling factors of a closed event",
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, _ := cmd.Flags().GetString("event")
			if eventID == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.settle(cmd.Context(), eventID)
		},
	}
	cmdSettle.Flags().String("event", "", "the closed event's id")
	root.AddCommand(cmdSettle)

	return root
}

// run executes the command line. args exclude the program name.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	if len(args) == 0 {
		_ = root.Usage()
		return errHelp
	}
	return root.ExecuteContext(ctx)
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

// newValidator returns a validator knowing the app's custom tags.
func newValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}
