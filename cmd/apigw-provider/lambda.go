package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/clients"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/lambda"
)

func newLambdaCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve CloudFormation custom resource requests as a Lambda function",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLambda(cmd.Context(), *configPath)
		},
	}
}

func runLambda(ctx context.Context, configPath string) error {
	provider, err := loadProvider(ctx, configPath)
	if err != nil {
		return err
	}
	setupLog.Info("Starting Lambda handler", "region", provider.Config.AWS.Region)
	lambda.NewHandler(provider.Dispatcher).Start()
	return nil
}

func loadProvider(ctx context.Context, configPath string) (*clients.Provider, error) {
	cfg, err := clients.LoadProviderConfig(configPath)
	if err != nil {
		return nil, err
	}
	return clients.NewProvider(ctx, cfg)
}
