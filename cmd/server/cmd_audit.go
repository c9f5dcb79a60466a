package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/config"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/server"
)

func auditCmd(envFile *string) *cobra.Command {
	var (
		target   string
		codeFile string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run a single audit and print the result as JSON",
		Example: `  quartz audit --url example.com
  quartz audit --code-file checkout.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := auditRequest(cmd, target, codeFile)
			if err != nil {
				return err
			}

			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			// stdout carries the result
			logger, err := logging.New(logging.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := contextOrBackground(cmd)
			pipeline, err := server.BuildPipeline(ctx, cfg, server.Components{Logger: logger})
			if err != nil {
				return err
			}

			result, runErr := pipeline.Service.Run(ctx, req)
			if runErr != nil {
				result = audit.ErrorResult(runErr.Error())
			}
			out, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if runErr != nil {
				return fmt.Errorf("audit failed (HTTP %d equivalent)", audit.StatusCode(runErr))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "Website URL to audit")
	cmd.Flags().StringVar(&codeFile, "code-file", "", `File containing code to audit ("-" reads stdin)`)
	cmd.MarkFlagsMutuallyExclusive("url", "code-file")
	cmd.MarkFlagsOneRequired("url", "code-file")
	return cmd
}

func auditRequest(cmd *cobra.Command, target, codeFile string) (audit.Request, error) {
	if target != "" {
		return audit.Request{Kind: audit.KindURL, Content: target}, nil
	}
	if codeFile == "" {
		return audit.Request{}, errors.New("one of --url or --code-file is required")
	}

	var (
		data []byte
		err  error
	)
	if codeFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(codeFile)
	}
	if err != nil {
		return audit.Request{}, fmt.Errorf("failed to read %s: %w", codeFile, err)
	}
	return audit.Request{Kind: audit.KindCode, Content: string(data)}, nil
}
