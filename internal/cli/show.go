package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/voicedesk/internal/config"
	"github.com/Harshitk-cp/voicedesk/internal/controller"
)

func NewShowCommand(root *RootCommand) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an agent",
		Long: `Show an agent and its runtime status.

With --watch the status keeps refreshing until interrupted and each change is
printed on its own line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			d := controller.NewDetail(root.api, args[0], nil, root.logger,
				controller.WithPollInterval(interval))
			defer d.Close()
			updates := d.Subscribe()

			openCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			err := d.Open(openCtx)
			cancel()
			if err != nil {
				return err
			}

			s := d.Snapshot()
			if err := PrintData(root.opts, viewOf(s), func(w io.Writer) error {
				_, err := fmt.Fprintln(w, renderAgentCard(s))
				return err
			}); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			return root.watch(ctx, d, updates, s)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing status until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", config.PollInterval(), "Status refresh interval (env POLL_INTERVAL)")
	return cmd
}

type statusKey struct {
	status string
	pid    int
}

func keyOf(s controller.DetailState) statusKey {
	k := statusKey{status: s.DisplayStatus()}
	if s.Status != nil && s.Status.PID != nil {
		k.pid = *s.Status.PID
	}
	return k
}

// watch prints a line each time the displayed status changes.
func (r *RootCommand) watch(ctx context.Context, d *controller.Detail, updates <-chan struct{}, initial controller.DetailState) error {
	last := keyOf(initial)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}

			s := d.Snapshot()
			k := keyOf(s)
			if k == last {
				continue
			}
			last = k

			err := PrintData(r.opts, viewOf(s), func(w io.Writer) error {
				line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), statusBadge(k.status))
				if k.pid != 0 {
					line += fmt.Sprintf(" (pid %d)", k.pid)
				}
				_, err := fmt.Fprintln(w, line)
				return err
			})
			if err != nil {
				return err
			}
		}
	}
}
