package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/climesync/internal/command"
	"github.com/Tiliavir/climesync/internal/config"
	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/session"
)

// offline marks commands that run without a TimeSync connection.
const offline = "offline"

var (
	connectURL  string
	username    string
	password    string
	ldap        bool
	configPath  string
	sessionPath string
	testMode    bool
	verbose     bool
)

// cc is built once per process by setup.
var cc *command.ClientContext

var rootCmd = &cobra.Command{
	Use:   "climesync",
	Short: "Climesync – a command-line client for TimeSync",
	Long: `climesync talks to a TimeSync time-tracking server.

Run it without a subcommand for the interactive shell, or pass a subcommand
to run a single operation. Connection defaults are read from
~/.climesync/config.json.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runShell,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&connectURL, "connect", "c", "", "TimeSync server URL")
	f.StringVarP(&username, "username", "u", "", "TimeSync username")
	f.StringVarP(&password, "password", "p", "", "TimeSync password")
	f.BoolVar(&ldap, "ldap", false, "Authenticate with LDAP")
	f.StringVar(&configPath, "config", "", "Config file (default ~/.climesync/config.json)")
	f.StringVar(&sessionPath, "session", "", "Clock-in session file (default ~/.climesync/session)")
	f.BoolVar(&testMode, "test", false, "Use canned test data instead of a server")
	f.BoolVar(&verbose, "verbose", false, "Log debug output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(statusCmd)
	for _, c := range command.Commands() {
		if c.Scripted {
			rootCmd.AddCommand(scriptedCommand(c))
		}
	}
}

// setup loads the config, then connects and signs in. The root command does
// both interactively; subcommands fail instead of prompting.
func setup(cmd *cobra.Command, _ []string) error {
	logger := newLogger(verbose)

	var err error
	if configPath == "" {
		if configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	if sessionPath == "" {
		if sessionPath, err = session.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	interactive := cmd == rootCmd
	out := cmd.OutOrStdout()
	cc = &command.ClientContext{
		Sessions:         session.NewStore(sessionPath),
		Prompter:         field.NewPrompter(os.Stdin, out),
		Config:           cfg,
		ConfigPath:       configPath,
		Logger:           logger,
		Dial:             command.DialTimeSync(logger),
		Show:             func(records ...model.Record) { printRecords(out, records) },
		Test:             testMode,
		AutoUpdateConfig: interactive,
	}
	if cmd.Annotations[offline] != "" || cmd.Name() == "help" {
		return nil
	}

	ctx := cmd.Context()
	res, err := command.Connect(ctx, cc, connectURL, interactive)
	if err != nil {
		return startupError(interactive, err)
	}
	logger.Debug(res.Note)

	creds := model.Record{}
	if username != "" {
		creds["username"] = username
	}
	if password != "" {
		creds["password"] = password
	}
	if cmd.Flags().Changed("ldap") {
		creds["ldap"] = ldap
	}
	res, err = command.SignIn(ctx, cc, creds, interactive)
	if err != nil {
		return startupError(interactive, err)
	}
	if interactive {
		fmt.Fprintln(out, res.Note)
	}
	return nil
}

// startupError lets the shell start anyway so the user can connect or sign
// in by hand.
func startupError(interactive bool, err error) error {
	if !interactive {
		return err
	}
	printError(os.Stderr, err)
	return nil
}
