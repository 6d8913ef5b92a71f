package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"dialpad/internal/config"
	"dialpad/internal/dialer"
	apperrors "dialpad/internal/errors"
	"dialpad/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := newRootCmd(defaultProgramFactory).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(*ui.App) programRunner

func defaultProgramFactory(app *ui.App) programRunner {
	return tea.NewProgram(app, tea.WithAltScreen())
}

// rootOptions holds the flags that are not plain configuration overrides.
type rootOptions struct {
	version     bool
	debug       bool
	metricsAddr string
}

// configFlags maps flag names to the configuration keys they override.
var configFlags = map[string]string{
	"check-url":       config.KeyUpdateCheckURL,
	"check-interval":  config.KeyUpdateCheckInterval,
	"call-right-away": config.KeyCallRightAway,
	"video":           config.KeyVideoAutoInitiate,
	"logs-upload-url": config.KeyLogsUploadURL,
	"preferences":     config.KeyPreferencesPath,
	"sip-user":        config.KeySIPUsername,
	"sip-domain":      config.KeySIPDomain,
	"sip-hostname":    config.KeySIPHostname,
	"sip-transport":   config.KeySIPTransport,
}

func newRootCmd(factory programFactory) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "dialpad [uri]",
		Short: "Terminal SIP dialer",
		Long: `dialpad is a keypad for placing, transferring and hanging up SIP calls
from the terminal. It checks for updates at most once per configured interval.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			if err := config.Initialize(); err != nil {
				return apperrors.New(apperrors.CodeConfigurationError, "initialize config", err)
			}
			if err := config.ApplyOverrides(configOverrides(cmd.Flags())); err != nil {
				return apperrors.New(apperrors.CodeConfigurationError, "apply flag overrides", err)
			}
			return run(cmd.Context(), sessionOptions{
				Args:  screenArgs(cmd.Flags(), args),
				Debug: opts.debug,
			}, opts.metricsAddr, factory, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.version, "version", false, "Print version information and exit")
	flags.String("uri", "", "Number or SIP address to open the dialer with")
	flags.Bool("transfer", false, "Open the dialer to pick a transfer target")
	flags.Bool("skip-auto-call", false, "Never call --uri right away, only enter it")
	flags.BoolVar(&opts.debug, "debug", false, "Write debug logs to ~/.dialpad/debug.log")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")

	flags.String("check-url", "", "Update descriptor URL (empty disables update checks)")
	flags.Int64("check-interval", config.DefaultUpdateCheckIntervalSeconds, "Minimum seconds between update checks")
	flags.Bool("call-right-away", false, "Call a URI passed on the command line immediately")
	flags.Bool("video", false, "Start video automatically on calls")
	flags.String("logs-upload-url", "", "Endpoint debug logs are uploaded to")
	flags.String("preferences", "", "Path to the preferences database")
	flags.String("sip-user", "", "SIP username")
	flags.String("sip-domain", "", "SIP domain bare numbers are dialed at")
	flags.String("sip-hostname", "", "Local host or IP advertised in SIP headers")
	flags.String("sip-transport", "", "SIP transport (udp, tcp)")

	return cmd
}

// configOverrides collects the configuration flags the user actually set,
// so defaults never shadow values from config files or the environment.
func configOverrides(fs *pflag.FlagSet) map[string]any {
	overrides := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		key, ok := configFlags[f.Name]
		if !ok {
			return
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := fs.GetBool(f.Name)
			overrides[key] = v
		case "int64":
			v, _ := fs.GetInt64(f.Name)
			overrides[key] = v
		default:
			overrides[key] = f.Value.String()
		}
	})
	return overrides
}

// screenArgs turns flags and the optional positional URI into dialer
// arguments. Only explicitly set flags count as present.
func screenArgs(fs *pflag.FlagSet, positional []string) dialer.Args {
	var args dialer.Args
	if fs.Changed("transfer") {
		transfer, _ := fs.GetBool("transfer")
		args.Transfer = &transfer
	}
	switch {
	case fs.Changed("uri"):
		uri, _ := fs.GetString("uri")
		args.URI = &uri
	case len(positional) == 1:
		uri := positional[0]
		args.URI = &uri
	}
	args.SkipAutoCallStart, _ = fs.GetBool("skip-auto-call")
	return args
}

func run(ctx context.Context, opts sessionOptions, metricsAddr string, factory programFactory, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if metricsAddr != "" {
		_, stop, err := serveMetrics(metricsAddr, s.core.Registry())
		if err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
		defer stop()
	}

	if factory == nil {
		return fmt.Errorf("program factory is nil")
	}
	prog := factory(s.app)
	if prog == nil {
		return fmt.Errorf("program is nil")
	}
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	for _, dest := range s.Requested() {
		fmt.Fprintf(out, "open %s\n", dest)
	}
	return nil
}
