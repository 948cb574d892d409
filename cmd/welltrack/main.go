package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot(command{out: os.Stdout, in: os.Stdin, sessions: NewSessionManager()})
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// APIFlags selects and secures the daemon a remote command talks to.
type APIFlags struct {
	APIUrl     string
	APITimeout time.Duration
	CACert     string
	Insecure   bool
	JSON       bool
}

type LoginFlags struct {
	Username string
	APIFlags
}

// ReportFlags holds flags for fleet-wide read commands
type ReportFlags struct {
	Today string
	APIFlags
}

// WellFlags holds flags for single-well read commands
type WellFlags struct {
	Well  string
	Today string
	APIFlags
}

type SetFlags struct {
	Well    string
	Process string
	Start   string
	End     string
	APIFlags
}

type AnchorFlags struct {
	Well string
	Date string
	APIFlags
}

type DeleteFlags struct {
	Well    string
	Process string
	Yes     bool
	APIFlags
}

type WorkflowFlags struct {
	Well string
	Set  string
	APIFlags
}

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	Listen string
}

type GenCertFlags struct {
	Dir       string
	Hosts     []string
	ValidDays int
}

// buildRoot creates the root command with every subcommand attached.
func buildRoot(c command) *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := createRootCommand(globalFlags)
	root.SetOut(c.out)
	root.AddCommand(
		createServeCommand(globalFlags),
		createLoginCommand(c),
		createLogoutCommand(c),
		createWellsCommand(c),
		createShowCommand(c),
		createSetCommand(c),
		createAnchorCommand(c),
		createDeleteCommand(c),
		createDashboardCommand(c),
		createWorkflowCommand(c),
		createGenCertCommand(c),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "welltrack",
		Short: "Well workover progress tracking",
		Long: `Welltrack records stage dates for each well's workover programme and
reports countdowns, KPI status and completion against the target window.

Examples:
  welltrack serve config.toml                 # Start the daemon
  welltrack login --username=user1
  welltrack wells
  welltrack show --well=SN-113
  welltrack set --well=SN-113 --process="Frac Execution" --start=2024-01-20 --end=2024-01-25`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

func addAPIFlags(cmd *cobra.Command, f *APIFlags) {
	cmd.Flags().StringVar(&f.APIUrl, "api-url", "", "daemon URL (e.g. http://host:8080/api); defaults to the session's server")
	cmd.Flags().DurationVar(&f.APITimeout, "api-timeout", 10*time.Second, "request timeout")
	cmd.Flags().StringVar(&f.CACert, "ca-cert", "", "CA certificate for an HTTPS daemon")
	cmd.Flags().BoolVar(&f.Insecure, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "print the raw JSON response")
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		if err := cmd.MarkFlagRequired(n); err != nil {
			panic(err) // This should never happen during setup
		}
	}
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the welltrack daemon",
		Long: `Start the HTTP API daemon. Without a config file the built-in defaults
are used: the ten configured wells, a sqlite store at ./welltrack.db and
the API on :8080/api.

Examples:
  welltrack serve
  welltrack serve config.toml
  welltrack serve --config=config.toml --listen=127.0.0.1:9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			return runServe(path, *serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "override [server].listen")
	return cmd
}

func createLoginCommand(c command) *cobra.Command {
	f := &LoginFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the daemon and save the session",
		Long: `Exchange a configured username for a session token. The session is saved
to ~/.welltrack/session.json and used by later commands.

Examples:
  welltrack login --username=user1
  welltrack login --username=viewer1 --api-url=https://tracker:8443/api --ca-cert=ca.crt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Login(*f)
		},
	}
	cmd.Flags().StringVar(&f.Username, "username", "", "username (required)")
	addAPIFlags(cmd, &f.APIFlags)
	markRequired(cmd, "username")
	return cmd
}

func createLogoutCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Logout()
		},
	}
}

func createWellsCommand(c command) *cobra.Command {
	f := &ReportFlags{}
	cmd := &cobra.Command{
		Use:   "wells",
		Short: "List wells with their countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Wells(*f)
		},
	}
	cmd.Flags().StringVar(&f.Today, "today", "", "evaluate as of YYYY-MM-DD (default: server date)")
	addAPIFlags(cmd, &f.APIFlags)
	return cmd
}

func createShowCommand(c command) *cobra.Command {
	f := &WellFlags{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one well's stages, countdown and KPI status",
		Long: `Show the full report for a well: every stage with its dates, duration and
KPI status, the countdown, total days, completion and gap.

Examples:
  welltrack show --well=SN-113
  welltrack show --well=SN-113 --today=2024-03-01 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Show(*f)
		},
	}
	cmd.Flags().StringVar(&f.Well, "well", "", "well name (required)")
	cmd.Flags().StringVar(&f.Today, "today", "", "evaluate as of YYYY-MM-DD (default: server date)")
	addAPIFlags(cmd, &f.APIFlags)
	markRequired(cmd, "well")
	return cmd
}

func createSetCommand(c command) *cobra.Command {
	f := &SetFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the start and end dates of a stage",
		Long: `Write a stage record. Both dates are replaced: an omitted date is stored
empty. The start date must not be after the end date.

Examples:
  welltrack set --well=SN-113 --process="Frac Execution" --start=2024-01-20
  welltrack set --well=SN-113 --process="Frac Execution" --start=2024-01-20 --end=2024-01-25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Set(*f)
		},
	}
	cmd.Flags().StringVar(&f.Well, "well", "", "well name (required)")
	cmd.Flags().StringVar(&f.Process, "process", "", "stage name (required)")
	cmd.Flags().StringVar(&f.Start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.End, "end", "", "end date YYYY-MM-DD")
	addAPIFlags(cmd, &f.APIFlags)
	markRequired(cmd, "well", "process")
	return cmd
}

func createAnchorCommand(c command) *cobra.Command {
	f := &AnchorFlags{}
	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "Set the anchor milestone date (Rig Release)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Anchor(*f)
		},
	}
	cmd.Flags().StringVar(&f.Well, "well", "", "well name (required)")
	cmd.Flags().StringVar(&f.Date, "date", "", "milestone date YYYY-MM-DD (required)")
	addAPIFlags(cmd, &f.APIFlags)
	markRequired(cmd, "well", "date")
	return cmd
}

func createDeleteCommand(c command) *cobra.Command {
	f := &DeleteFlags{}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stage record after confirmation",
		Long: `Request deletion of a stage record, then confirm or cancel it.
You are asked before anything is deleted unless --yes is given.

Examples:
  welltrack delete --well=SN-113 --process="Frac Execution"
  welltrack delete --well=SN-113 --process="Frac Execution" --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Delete(*f)
		},
	}
	cmd.Flags().StringVar(&f.Well, "well", "", "well name (required)")
	cmd.Flags().StringVar(&f.Process, "process", "", "stage name (required)")
	cmd.Flags().BoolVarP(&f.Yes, "yes", "y", false, "confirm without prompting")
	addAPIFlags(cmd, &f.APIFlags)
	markRequired(cmd, "well", "process")
	return cmd
}

func createDashboardCommand(c command) *cobra.Command {
	f := &ReportFlags{}
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the fleet progress overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Dashboard(*f)
		},
	}
	cmd.Flags().StringVar(&f.Today, "today", "", "evaluate as of YYYY-MM-DD (default: server date)")
	addAPIFlags(cmd, &f.APIFlags)
	return cmd
}

func createWorkflowCommand(c command) *cobra.Command {
	f := &WorkflowFlags{}
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Show or change a well's stage sequence",
		Long: `Show the workflow a well follows, or switch it with --set.

Examples:
  welltrack workflow --well=SR-603
  welltrack workflow --well=SR-603 --set=HAF`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Workflow(*f)
		},
	}
	cmd.Flags().StringVar(&f.Well, "well", "", "well name (required)")
	cmd.Flags().StringVar(&f.Set, "set", "", "switch to this workflow (HBF, HAF or a configured name)")
	addAPIFlags(cmd, &f.APIFlags)
	markRequired(cmd, "well")
	return cmd
}

func createGenCertCommand(c command) *cobra.Command {
	f := &GenCertFlags{}
	cmd := &cobra.Command{
		Use:   "gen-cert",
		Short: "Generate a self-signed TLS certificate for the daemon",
		Long: `Write tls.crt, tls.key and tls_ca.crt into --dir unless a pair
already exists there. Point [server].tls_cert_file and tls_key_file at them.

Examples:
  welltrack gen-cert --dir=./tls --host=tracker.local --host=10.0.0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.GenCert(*f)
		},
	}
	cmd.Flags().StringVar(&f.Dir, "dir", "", "output directory (required)")
	cmd.Flags().StringSliceVar(&f.Hosts, "host", nil, "DNS name or IP the certificate is valid for (repeatable)")
	cmd.Flags().IntVar(&f.ValidDays, "valid-days", 365, "certificate lifetime in days")
	markRequired(cmd, "dir")
	return cmd
}
