package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	validator "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/patric-chuzhbe/cineshelf/internal/app"
	"github.com/patric-chuzhbe/cineshelf/internal/config"
)

// configFlags mirrors the flags understood by config.New. Only the flags the
// user actually set are forwarded, so environment values are not shadowed.
var configFlags = []struct {
	name      string
	shorthand string
	configArg string
	usage     string
}{
	{name: "config", shorthand: "c", configArg: "-c", usage: "JSON config file name"},
	{name: "log-level", shorthand: "l", configArg: "-l", usage: "logger level"},
	{name: "storage-file", shorthand: "f", configArg: "-f", usage: "JSON file name with the local storage"},
	{name: "bolt", shorthand: "b", configArg: "-b", usage: "bbolt file name with the local storage"},
	{name: "sqlite", shorthand: "s", configArg: "-s", usage: "SQLite file name with the local storage"},
	{name: "dsn", shorthand: "d", configArg: "-d", usage: "PostgreSQL connection string"},
	{name: "language", shorthand: "", configArg: "-lang", usage: "TMDB response language"},
}

type cli struct {
	app      *app.App
	in       io.Reader
	lines    *bufio.Reader
	out      io.Writer
	flags    map[string]*string
	validate *validator.Validate
}

// run executes one command line and always releases the application,
// including when the command failed.
func run(in io.Reader, out, errOut io.Writer, args []string) error {
	c := &cli{in: in, flags: map[string]*string{}, validate: validator.New()}
	rootCmd := c.rootCmd()
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)

	return errors.Join(rootCmd.ExecuteContext(context.Background()), c.close())
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cineshelf",
		Short:         "Browse movies and series and keep a favorites list",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
	}

	for _, flag := range configFlags {
		value := new(string)
		c.flags[flag.name] = value
		rootCmd.PersistentFlags().StringVarP(value, flag.name, flag.shorthand, "", flag.usage)
	}

	rootCmd.AddCommand(
		c.popularCmd(),
		c.topRatedCmd(),
		c.searchCmd(),
		c.detailsCmd(),
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.favoritesCmd(),
	)

	return rootCmd
}

func (c *cli) open(cmd *cobra.Command) error {
	c.out = cmd.OutOrStdout()

	configArgs := []string{}
	for _, flag := range configFlags {
		if cmd.Flags().Changed(flag.name) {
			configArgs = append(configArgs, flag.configArg, *c.flags[flag.name])
		}
	}

	application, err := app.New(
		cmd.Context(),
		app.WithConfigOptions(config.WithArgs(configArgs)),
		app.WithNotifier(writerNotifier{w: cmd.ErrOrStderr()}),
	)
	if err != nil {
		return err
	}
	c.app = application

	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil

	return err
}

// writerNotifier prints alerts for the terminal user.
type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) Alert(ctx context.Context, title, message string) {
	fmt.Fprintf(n.w, "%s: %s\n", title, message)
}
