package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modkit-dev/modkit/internal/config"
	"github.com/modkit-dev/modkit/internal/publish"
	"github.com/modkit-dev/modkit/internal/xerrors"
)

func deployCmd() *cobra.Command {
	var (
		bucket string
		prefix string
		region string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the build output to S3",
		Long: `Upload the contents of the build output directory to S3.

Credentials are resolved from the standard AWS chain (environment,
shared config, instance role). The target bucket comes from
deploy.bucket in modkit.json unless overridden.

Examples:
  modkit deploy
  modkit deploy --bucket=my-site --region=eu-west-1
  modkit deploy --prefix=preview/42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(bucket, prefix, region)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (default from modkit.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix inside the bucket")
	cmd.Flags().StringVar(&region, "region", "", "AWS region of the bucket")

	return cmd
}

func runDeploy(bucket, prefix, region string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if bucket != "" {
		cfg.Deploy.Bucket = bucket
	}
	if prefix != "" {
		cfg.Deploy.Prefix = prefix
	}
	if region != "" {
		cfg.Deploy.Region = region
	}

	outputDir := cfg.OutputPath()
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		return xerrors.New("M400").
			WithDetail("No build output found at " + outputDir).
			WithSuggestion("Run `modkit build` first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	publisher, err := publish.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	publisher.Logf = info

	fmt.Printf("  Deploying to s3://%s/%s\n", cfg.Deploy.Bucket, cfg.Deploy.Prefix)
	fmt.Println()

	count, err := publisher.Publish(ctx, outputDir)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Deployed %d objects", count)

	return nil
}
