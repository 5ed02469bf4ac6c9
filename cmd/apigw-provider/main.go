package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

var setupLog = ctrl.Log.WithName("setup")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	opts := zap.Options{}

	cmd := &cobra.Command{
		Use:   "apigw-provider",
		Short: "CloudFormation custom resources for API Gateway REST APIs",
		Long: `apigw-provider manages API Gateway REST APIs, resources, methods, custom domain
names, base path mappings and OpenAPI imports on behalf of CloudFormation.

Without a subcommand it starts the Lambda handler when running inside Lambda.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(&opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
				return runLambda(cmd.Context(), configPath)
			}
			return cmd.Help()
		},
	}

	goflags := goflag.NewFlagSet("zap", goflag.ContinueOnError)
	opts.BindFlags(goflags)
	cmd.PersistentFlags().AddGoFlagSet(goflags)
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overlaid on the environment configuration")

	cmd.AddCommand(
		newLambdaCommand(&configPath),
		newServeCommand(&configPath),
		newInvokeCommand(&configPath),
		newVersionCommand(),
	)
	return cmd
}

// setupLogger installs the root logger. LOG_LEVEL applies unless
// --zap-log-level was given.
func setupLogger(opts *zap.Options) error {
	if opts.Level == nil {
		if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
			level, err := zapcore.ParseLevel(lvl)
			if err != nil {
				return fmt.Errorf("invalid LOG_LEVEL %q: %w", lvl, err)
			}
			opts.Level = level
		}
	}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(opts)))
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
