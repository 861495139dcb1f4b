package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/docsafe/internal/gate"
)

// GateCommand evaluates the edge gate for one path and cookie pair, the same
// way the middleware does for a request.
type GateCommand struct {
	Path  string
	Token string
	Role  string
}

func NewGateCommand() *cobra.Command {
	gc := &GateCommand{}
	cmd := &cobra.Command{
		Use:   "gate --path /admin/users [--token T] [--role admin|student]",
		Short: "Show the gate decision for a path and cookies",
		Example: `  docsafe gate --path /admin/dashboard
  docsafe gate --path /login --token abc --role student`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return gc.Run(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&gc.Path, "path", "", "Request path (required)")
	cmd.Flags().StringVar(&gc.Token, "token", "", "Value of the token cookie")
	cmd.Flags().StringVar(&gc.Role, "role", "", "Value of the userRole cookie")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (gc *GateCommand) Run(out io.Writer) error {
	g := gate.New(gate.DefaultRoutes)
	if !g.Matches(gc.Path) {
		_, err := fmt.Fprintf(out, "%s: not gated\n", gc.Path)
		return err
	}

	d := g.Decide(gc.Path, gate.Cookies{Token: gc.Token, Role: gc.Role})
	if d.Allow {
		_, err := fmt.Fprintf(out, "%s: allow\n", gc.Path)
		return err
	}
	_, err := fmt.Fprintf(out, "%s: redirect to %s (%s)\n", gc.Path, d.Location, d.Rule)
	return err
}
