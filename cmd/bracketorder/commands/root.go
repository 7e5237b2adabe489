// Package commands implements the bracketorder subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/config"
	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/render"
	"github.com/Sumatoshi-tech/bracketorder/internal/roundfile"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
	"github.com/Sumatoshi-tech/bracketorder/pkg/version"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagFormat  = "format"
	flagSort    = "sort"

	stdinPath = "-"
)

// ErrPlotUnsupported is returned when a command other than render is asked
// for the HTML chart.
var ErrPlotUnsupported = errors.New("plot output is only available for the render command")

// NewRootCommand builds the bracketorder command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bracketorder",
		Short: "Reconstruct tournament brackets from their rounds",
		Long: `bracketorder rebuilds the bracket behind a list of tournament rounds:
the ranking of every entrant and which matches feed which.

Commands:
  rank      Entrant ranking
  pairs     Advancement links between matches
  compare   Relative order of two entrants
  render    Full result as text, JSON, YAML or an HTML chart
  sort      Reorder matches within rounds
  mcp       MCP server for AI agents
  serve     HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "config file (default: .bracketorder.yaml in . or $HOME)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP(flagQuiet, "q", false, "suppress output")

	rootCmd.AddCommand(
		NewRankCommand(),
		NewPairsCommand(),
		NewCompareCommand(),
		NewRenderCommand(),
		NewSortCommand(),
		NewMCPCommand(),
		NewServeCommand(),
		NewVersionCommand(),
	)

	return rootCmd
}

// NewVersionCommand creates the version subcommand.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("bracketorder"))
		},
	}
}

// session is the per-invocation state shared by the subcommands.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	svc       *service.Service
	logger    *slog.Logger
	out       io.Writer
	in        io.Reader
}

// openSession loads the configuration and starts telemetry for mode.
func openSession(cmd *cobra.Command, mode observability.AppMode) (*session, error) {
	configPath, _ := cmd.Flags().GetString(flagConfig)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level, err := observability.ParseLevel(cfg.Observability.LogLevel)
	if err != nil {
		return nil, err
	}

	if verbose, _ := cmd.Flags().GetBool(flagVerbose); verbose {
		level = slog.LevelDebug
	}

	if quiet, _ := cmd.Flags().GetBool(flagQuiet); quiet {
		level = slog.LevelError
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Observability.LogJSON || mode == observability.ModeMCP
	obsCfg.LogOutput = cmd.ErrOrStderr()
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.Prometheus = mode == observability.ModeServe

	providers, err := observability.Init(contextOf(cmd), obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	svc, err := service.New(service.Deps{
		Tracer:               providers.Tracer,
		Meter:                providers.Meter,
		Logger:               providers.Logger,
		CacheSize:            cfg.Reconstruct.CacheSize,
		HibernationThreshold: cfg.Reconstruct.HibernationThreshold,
	})
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &session{
		cfg:       cfg,
		providers: providers,
		svc:       svc,
		logger:    providers.Logger,
		out:       cmd.OutOrStdout(),
		in:        cmd.InOrStdin(),
	}, nil
}

func (s *session) close() {
	err := s.providers.Shutdown(context.Background())
	if err != nil {
		s.logger.Warn("observability shutdown failed", "error", err)
	}
}

// loadRounds reads a round file, or standard input for "-".
func (s *session) loadRounds(path string) ([]bracket.Round, error) {
	opts := roundfile.Options{Validate: s.cfg.Input.ValidateSchema}

	if path != stdinPath {
		return roundfile.Load(path, opts)
	}

	data, err := io.ReadAll(s.in)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	return roundfile.Decode(data, roundfile.DetectFormat("", data), opts)
}

// options resolves per-call options: an explicit --sort wins over the config.
func (s *session) options(cmd *cobra.Command) service.Options {
	opts := service.Options{SortMatches: s.cfg.Reconstruct.SortMatches}

	if cmd.Flags().Changed(flagSort) {
		opts.SortMatches, _ = cmd.Flags().GetBool(flagSort)
	}

	return opts
}

// format resolves the output format: --format wins over the config.
func (s *session) format(cmd *cobra.Command) render.Format {
	if cmd.Flags().Changed(flagFormat) {
		value, _ := cmd.Flags().GetString(flagFormat)

		return render.Format(value)
	}

	return render.Format(s.cfg.Output.Format)
}

func (s *session) color() bool {
	return s.cfg.Output.Color && !color.NoColor
}

// reconstruct loads path and runs the service on it.
func (s *session) reconstruct(cmd *cobra.Command, path string) (bracket.Result, error) {
	rounds, err := s.loadRounds(path)
	if err != nil {
		return bracket.Result{}, err
	}

	return s.svc.Reconstruct(contextOf(cmd), rounds, s.options(cmd))
}

// writeValue prints value in a structured format, or calls text for the
// text format.
func writeValue(w io.Writer, format render.Format, value any, text func() string) error {
	switch format {
	case render.FormatText:
		_, err := fmt.Fprintln(w, text())
		if err != nil {
			return fmt.Errorf("write text: %w", err)
		}

		return nil
	case render.FormatJSON:
		return render.JSON(w, value)
	case render.FormatYAML:
		return render.YAML(w, value)
	case render.FormatPlot:
		return ErrPlotUnsupported
	default:
		return fmt.Errorf("%w: %q", render.ErrUnknownFormat, format)
	}
}

func addResultFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagFormat, "f", config.DefaultOutputFormat, "Output format: text, json, yaml")
	cmd.Flags().Bool(flagSort, config.DefaultSortMatches, "Sort matches within rounds before reconstructing")
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
