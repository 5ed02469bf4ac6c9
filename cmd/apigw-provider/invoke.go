package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/cli"
)

func newInvokeCommand(configPath *string) *cobra.Command {
	var (
		file     string
		output   string
		stateDir string
		noState  bool
	)

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Run lifecycle events from a YAML or JSON file",
		Example: `  # Create, then update, a REST API
  apigw-provider invoke -f restapi.yaml

  # Read a single JSON event from stdin
  cat delete.json | apigw-provider invoke -f - -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q", output)
			}
			events, err := cli.ParseFile(file)
			if err != nil {
				return err
			}

			provider, err := loadProvider(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			var state *cli.StateManager
			if !noState {
				state = cli.NewStateManager(stateDir)
			}
			return cli.NewExecutor(provider.Dispatcher, state, cmd.OutOrStdout(), output).Invoke(cmd.Context(), events)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Event file, or - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Directory for local state (default ~/.apigw-provider/state)")
	cmd.Flags().BoolVar(&noState, "no-state", false, "Do not read or record local state")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
