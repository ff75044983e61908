package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/voicedesk/internal/config"
	"github.com/Harshitk-cp/voicedesk/internal/controller"
	"github.com/Harshitk-cp/voicedesk/internal/domain"
)

// agentView is the structured form of the detail view.
type agentView struct {
	Agent  *domain.Agent  `json:"agent" yaml:"agent"`
	Status *domain.Status `json:"status,omitempty" yaml:"status,omitempty"`
}

func viewOf(s controller.DetailState) agentView {
	return agentView{Agent: s.Agent, Status: s.Status}
}

// openDetail loads one agent. The caller must Close the returned controller.
func (r *RootCommand) openDetail(ctx context.Context, id string, nav controller.Navigator) (*controller.Detail, error) {
	d := controller.NewDetail(r.api, id, nav, r.logger,
		controller.WithPollInterval(config.PollInterval()))
	if err := d.Open(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// reportAction prints the outcome of an agent action.
func (r *RootCommand) reportAction(s controller.DetailState, format string, args ...any) error {
	if r.opts.Structured() {
		return PrintData(r.opts, viewOf(s), nil)
	}
	PrintSuccess(r.opts, format, args...)
	if r.opts.Quiet {
		return nil
	}
	fmt.Fprintf(r.opts.Writer, "  status: %s\n", statusBadge(s.DisplayStatus()))
	return nil
}

func agentTypeNames() string {
	names := make([]string, len(domain.AgentTypes))
	for i, t := range domain.AgentTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func NewListCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agents, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			l := controller.NewList(root.api, root.logger)
			if err := l.Load(ctx); err != nil {
				return err
			}
			s := l.Snapshot()

			return PrintData(root.opts, s.Agents, func(w io.Writer) error {
				if s.ShowCreatePrompt {
					PrintInfo(root.opts, "No agents yet. Create one with 'voicedesk create'.")
					return nil
				}

				t := NewTable(w, "ID", "NAME", "TYPE", "STATUS", "DEPLOYMENT", "CREATED")
				for _, a := range s.Agents {
					t.Row(a.ID, a.Name, a.AgentType.Label(), a.Status, deref(a.DeploymentStatus), formatTime(&a.CreatedAt))
				}
				if err := t.Flush(); err != nil {
					return err
				}

				stats := l.Stats()
				fmt.Fprintf(w, "\n%d agents, %d active\n", stats.Total, stats.Active)
				return nil
			})
		},
	}
}

func NewCreateCommand(root *RootCommand) *cobra.Command {
	var (
		agentType   string
		description string
		file        string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent from a description",
		Long: `Create an agent from a free-text description.

The first non-blank line of the description becomes the agent's name and the
remaining lines its personality. A single-line description is used for both.`,
		Example: `  $ voicedesk create --type car-vendor -d $'Max\nFriendly and upbeat, speaks fast.'
  $ voicedesk create --type restaurant-receptionist -f rosa.txt
  $ cat rosa.txt | voicedesk create --type restaurant-receptionist -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readDescription(cmd, description, file)
			if err != nil {
				return err
			}

			c := controller.NewCreate(root.api, nil, root.logger, controller.WithSuccessDwell(0))
			defer c.Close()

			if err := c.SetAgentType(agentType); err != nil {
				return fmt.Errorf("invalid agent type %q (want one of %s)", agentType, agentTypeNames())
			}
			c.SetDescription(text)

			if dryRun {
				req := c.Preview().Request(domain.AgentType(agentType))
				return PrintData(root.opts, req, func(w io.Writer) error {
					t := NewTable(w, "FIELD", "VALUE")
					t.Row("agent_type", string(req.AgentType))
					t.Row("name", req.Name)
					t.Row("personality", strings.ReplaceAll(req.Personality, "\n", " / "))
					return t.Flush()
				})
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := c.Submit(ctx)
			if err != nil {
				return err
			}

			return PrintData(root.opts, a, func(w io.Writer) error {
				PrintSuccess(root.opts, "Created agent %s", a.Name)
				fmt.Fprintln(w, renderAgentCard(controller.DetailState{Agent: a}))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&agentType, "type", "t", "", "Agent type ("+agentTypeNames()+")")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Agent description")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the description from a file (- for stdin)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the parsed name and personality without creating")
	_ = cmd.MarkFlagRequired("type")
	cmd.MarkFlagsMutuallyExclusive("description", "file")

	return cmd
}

func readDescription(cmd *cobra.Command, description, file string) (string, error) {
	if file == "" {
		if strings.TrimSpace(description) == "" {
			return "", errors.New("a description is required (--description or --file)")
		}
		return description, nil
	}

	var (
		b   []byte
		err error
	)
	if file == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read description: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", errors.New("description file is empty")
	}
	return string(b), nil
}

func NewStatusCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show an agent's runtime status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			st, err := root.api.GetStatus(ctx, args[0])
			if err != nil {
				return err
			}

			return PrintData(root.opts, st, func(w io.Writer) error {
				fmt.Fprintf(w, "%s\n", statusBadge(st.Status))
				if st.PID != nil {
					fmt.Fprintf(w, "pid: %d\n", *st.PID)
				}
				if st.ReturnCode != nil {
					fmt.Fprintf(w, "return code: %d\n", *st.ReturnCode)
				}
				return nil
			})
		},
	}
}

func NewStartCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start an agent's worker process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runLifecycle(cmd, args[0], (*controller.Detail).Start, "started")
		},
	}
}

func NewStopCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop an agent's worker process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runLifecycle(cmd, args[0], (*controller.Detail).Stop, "stopped")
		},
	}
}

func (r *RootCommand) runLifecycle(cmd *cobra.Command, id string, action func(*controller.Detail, context.Context) error, verb string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	d, err := r.openDetail(ctx, id, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := action(d, ctx); err != nil {
		return err
	}

	s := d.Snapshot()
	return r.reportAction(s, "Agent %s %s", s.Agent.Name, verb)
}

func NewDeleteCommand(root *RootCommand) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an agent",
		Long: `Delete an agent. This cannot be undone.

You will be asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			deleted := false
			d, err := root.openDetail(ctx, args[0], controller.NavigatorFunc(func() { deleted = true }))
			if err != nil {
				return err
			}
			defer d.Close()

			name := d.Snapshot().Agent.Name
			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Delete agent %q (%s)?", name, args[0]))
				if err != nil {
					return err
				}
				if !ok {
					warningColor.Fprintln(root.opts.Writer, "Deletion cancelled")
					return nil
				}
			}

			if err := d.Delete(ctx); err != nil {
				return err
			}
			if !deleted {
				return errors.New("agent deleted but the view did not close")
			}

			if root.opts.Structured() {
				return PrintData(root.opts, map[string]string{"id": args[0], "message": "Agent deleted successfully"}, nil)
			}
			PrintSuccess(root.opts, "Deleted agent %s", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func NewDeployCommand(root *RootCommand) *cobra.Command {
	var (
		dispatchID       string
		roomName         string
		deploymentStatus string
	)

	cmd := &cobra.Command{
		Use:   "deploy <id>",
		Short: "Record an agent's deployment",
		Long: `Record the dispatch ID and room an agent is deployed to.

The agent's existing deployment metadata is kept. Flags that are not given
keep the values of the current deployment, if any.`,
		Example: `  $ voicedesk deploy 0d6c... --dispatch-id AD_abc123 --room room-42`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			d, err := root.openDetail(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer d.Close()

			// Flags left unset keep the agent's current deployment values.
			d.OpenDeploymentForm()
			form := d.Snapshot().Deployment
			if cmd.Flags().Changed("dispatch-id") {
				form.DispatchID = dispatchID
			}
			if cmd.Flags().Changed("room") {
				form.RoomName = roomName
			}
			if cmd.Flags().Changed("deployment-status") {
				form.DeploymentStatus = deploymentStatus
			}
			d.SetDeploymentForm(form.DispatchID, form.RoomName, form.DeploymentStatus)
			if err := d.SubmitDeployment(ctx); err != nil {
				return err
			}

			s := d.Snapshot()
			if root.opts.Structured() {
				return PrintData(root.opts, s.Agent, nil)
			}
			PrintSuccess(root.opts, "Deployment recorded for %s", s.Agent.Name)
			if !root.opts.Quiet {
				fmt.Fprintln(root.opts.Writer, renderAgentCard(s))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dispatchID, "dispatch-id", "", "Dispatch ID")
	cmd.Flags().StringVar(&roomName, "room", "", "Room name")
	cmd.Flags().StringVar(&deploymentStatus, "deployment-status", domain.DefaultDeploymentStatus, "Deployment status label (default: current, else deployed)")
	return cmd
}

func NewDispatchCommand(root *RootCommand) *cobra.Command {
	var (
		phone      string
		transferTo string
	)

	cmd := &cobra.Command{
		Use:     "dispatch <id>",
		Short:   "Dispatch an agent into a call",
		Example: `  $ voicedesk dispatch 0d6c... --phone +15551234567 --transfer-to +15559876543`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			d, err := root.openDetail(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer d.Close()

			d.OpenDispatch()
			d.SetDispatchForm(phone, transferTo)
			resp, err := d.SubmitDispatch(ctx)
			if err != nil {
				return err
			}

			return PrintData(root.opts, resp, func(w io.Writer) error {
				PrintSuccess(root.opts, "Dispatched %s to %s", resp.Agent.Name, phone)
				t := NewTable(w, "DISPATCH ID", "ROOM")
				t.Row(resp.DispatchID, resp.RoomName)
				if err := t.Flush(); err != nil {
					return err
				}
				if resp.Output != "" {
					fmt.Fprintf(w, "\n%s\n", resp.Output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number to call")
	cmd.Flags().StringVar(&transferTo, "transfer-to", "", "Number to transfer the call to")
	return cmd
}

func NewRunningCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "running",
		Short: "List agents with a live worker process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			running, err := root.api.ListRunning(ctx)
			if err != nil {
				return err
			}

			return PrintData(root.opts, running, func(w io.Writer) error {
				if running.Count == 0 {
					PrintInfo(root.opts, "No running agents")
					return nil
				}

				ids := make([]string, 0, len(running.Running))
				for id := range running.Running {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				t := NewTable(w, "ID", "PID", "STATUS")
				for _, id := range ids {
					p := running.Running[id]
					t.Row(id, fmt.Sprintf("%d", p.PID), p.Status)
				}
				return t.Flush()
			})
		},
	}
}
