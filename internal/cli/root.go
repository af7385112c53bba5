package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"deskbook/pkg/client"
	"deskbook/pkg/model"
)

const (
	envBaseURL     = "DESKBOOK_URL"
	defaultBaseURL = "http://localhost:8080"
)

type globalFlags struct {
	baseURL string
	email   string
	role    string
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Propose, list and cancel seat reservations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	baseURL := os.Getenv(envBaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", baseURL, "reservations API base URL")
	root.PersistentFlags().StringVar(&flags.email, "email", "", "caller email sent as X-User-Info")
	root.PersistentFlags().StringVar(&flags.role, "role", "", "caller role (admin may delete any reservation)")

	root.AddCommand(newProposeCmd(flags))
	root.AddCommand(newListCmd(flags))
	root.AddCommand(newMineCmd(flags))
	root.AddCommand(newDeleteCmd(flags))
	root.AddCommand(newMigrateCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *globalFlags) client() (*client.ReservationClient, error) {
	if f.email == "" {
		return nil, fmt.Errorf("--email is required")
	}
	return client.NewReservationClient(f.baseURL, model.Identity{Email: f.email, Role: f.role})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
