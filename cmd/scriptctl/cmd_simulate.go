package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/VisageDvachevsky/wink-ai-model/internal/engine"
	"github.com/VisageDvachevsky/wink-ai-model/internal/interpreter"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
)

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		file      string
		engineURL string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "simulate <request...>",
		Short: "Run a what-if simulation of a request against a script file",
		Example: `  scriptctl simulate -f heist.txt "remove scenes 3-5"
  cat heist.txt | scriptctl simulate -f - reduce violence`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readScript(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := engine.New(engine.Config{BaseURL: engineURL, Timeout: timeout})
			svc := service.NewSimulationService(interpreter.New(), client, nil, service.NewCacheService("", 0))
			res, err := svc.Simulate(ctx, text, joinArgs(args))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `script file, or "-" for stdin`)
	cmd.Flags().StringVar(&engineURL, "engine", envOr("ENGINE_URL", "http://localhost:8000"), "rating engine base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "engine call timeout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("script %s is empty", path)
	}
	return string(data), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
