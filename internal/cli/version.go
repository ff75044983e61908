package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/voicedesk/internal/buildconfig"
)

func NewVersionCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintData(root.opts, buildconfig.VersionInfo(), func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "voicedesk version %s (%s)\n", buildconfig.Version(), buildconfig.Commit())
				return err
			})
		},
	}
}
