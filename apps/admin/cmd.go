package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/storage"
	"github.com/trezcool/studydesk/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	gooseRunFunc     = database.RunMigrations // mockable
	stdinFd          = func() int { return int(os.Stdin.Fd()) }

	errHelp   = errors.New("help provided")
	errNotSQL = errors.New("migrations only apply to the postgres and sqlite engines")
)

type commandLine struct {
	repos       *storage.Repositories
	calendarSvc calendar.ServiceInterface
	out         io.Writer
	now         func() time.Time
	loc         *time.Location // sessions are ranked in this time zone; nil keeps now's
}

func (cli *commandLine) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "StudyDesk administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCommand(),
		cli.addUserCommand(),
		cli.resetPasswordCommand(),
		cli.scheduleCommand(),
		cli.sweepCommand(),
	)
	return root
}

// run executes args; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run goose migration commands (up, up-to, down, down-to, redo, reset, status, version, create, fix)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			if cli.repos.SQL == nil {
				return errNotSQL
			}
			return gooseRunFunc(cmd.Context(), cli.repos.SQL, args[0], args[1:]...)
		},
	}
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(stdinFd())
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) addUserCommand() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or reactivate an existing one. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), name, email, pwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "user %s <%s> saved (id %s)\n", usr.Name, usr.Email, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "The user's name")
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) resetPasswordCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.resetPassword(cmd.Context(), email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) scheduleCommand() *cobra.Command {
	var email string
	var limit int
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the upcoming sessions of a user's courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.printSchedule(cmd.Context(), email, limit)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	cmd.Flags().IntVar(&limit, "limit", 0, "Sessions per course (0 for all)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Extract the due dates of every unprocessed syllabus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.sweep(cmd.Context())
		},
	}
}
