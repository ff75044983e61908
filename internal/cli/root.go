// Package cli is the voicedesk command line front end for the agent
// backend.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Harshitk-cp/voicedesk/internal/agentapi"
	"github.com/Harshitk-cp/voicedesk/internal/buildconfig"
	"github.com/Harshitk-cp/voicedesk/internal/config"
	"github.com/Harshitk-cp/voicedesk/internal/controller"
	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

const requestTimeout = 30 * time.Second

// AgentAPI is everything the commands need from the backend.
type AgentAPI interface {
	controller.AgentAPI
	ListRunning(ctx context.Context) (*domain.RunningAgents, error)
}

var _ AgentAPI = (*agentapi.Client)(nil)

type RootCommand struct {
	cmd       *cobra.Command
	opts      *OutputOptions
	formatStr string
	apiURL    string
	verbose   bool

	api      AgentAPI
	logger   *zap.Logger
	counters transport.Counters
}

// NewRootCommand builds the command tree. Flag defaults come from the
// environment, so config.Load should run first.
func NewRootCommand() *RootCommand {
	root := &RootCommand{
		opts:   NewOutputOptions(),
		logger: zap.NewNop(),
	}

	cmd := &cobra.Command{
		Use:   "voicedesk",
		Short: "Manage voice agents",
		Long: `voicedesk manages voice agents on an agent backend.

Agents are created from a free-text description, started and stopped as
worker processes, and dispatched into calls.`,
		Example: `  # List agents
  $ voicedesk list

  # Create a car vendor from a description file
  $ voicedesk create --type car-vendor -f max.txt

  # Watch an agent's status
  $ voicedesk show 0d6c... --watch`,
		Version:           buildconfig.Version(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: root.persistentPreRunE,
		PersistentPostRun: root.persistentPostRun,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate(fmt.Sprintf("voicedesk version %s (%s)\n", buildconfig.Version(), buildconfig.Commit()))

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&root.apiURL, "api-url", config.APIURL(), "Agent backend base URL (env VOICEDESK_API_URL)")
	pflags.StringVarP(&root.formatStr, "output", "o", string(OutputTable), "Output format (table, json, yaml)")
	pflags.BoolVarP(&root.opts.Quiet, "quiet", "q", false, "Suppress output")
	pflags.BoolVarP(&root.verbose, "verbose", "v", false, "Log backend requests to stderr")

	root.cmd = cmd
	root.addSubCommands()

	return root
}

func (r *RootCommand) addSubCommands() {
	r.cmd.AddCommand(
		NewListCommand(r),
		NewCreateCommand(r),
		NewShowCommand(r),
		NewStatusCommand(r),
		NewStartCommand(r),
		NewStopCommand(r),
		NewDeleteCommand(r),
		NewDeployCommand(r),
		NewDispatchCommand(r),
		NewRunningCommand(r),
		NewVersionCommand(r),
	)
}

// Command returns the cobra root.
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) Options() *OutputOptions {
	return r.opts
}

// SetOutput redirects normal and error output.
func (r *RootCommand) SetOutput(out, errOut io.Writer) {
	r.opts.Writer = out
	r.opts.Err = errOut
	r.cmd.SetOut(out)
	r.cmd.SetErr(errOut)
}

func (r *RootCommand) Execute(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

func (r *RootCommand) persistentPreRunE(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(r.formatStr)
	if err != nil {
		return err
	}
	r.opts.Format = format

	level := config.LogLevel()
	if r.verbose {
		level = "debug"
	}
	logger, err := NewLogger(level, r.opts.Err)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	r.logger = logger

	r.api = agentapi.New(r.newTransport())
	return nil
}

func (r *RootCommand) persistentPostRun(cmd *cobra.Command, args []string) {
	r.logger.Debug("backend requests",
		zap.Int64("requests", r.counters.Requests.Load()),
		zap.Int64("errors", r.counters.Errors.Load()))
	_ = r.logger.Sync()
}

func (r *RootCommand) newTransport() *transport.Client {
	return transport.New(r.apiURL,
		transport.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
		transport.WithMiddleware(
			transport.RequestID(),
			transport.UserAgent(buildconfig.UserAgent()),
			transport.Logging(r.logger),
			transport.Metrics(&r.counters),
			transport.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()),
		),
	)
}

// NewLogger builds a console logger at the given level writing to w.
func NewLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// commandContext bounds one-shot commands.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}
