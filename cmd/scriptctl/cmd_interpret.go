package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/interpreter"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

func newInterpretCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interpret <request...>",
		Short: "Show the modifications recognised in a free-text request",
		Example: `  scriptctl interpret "remove scenes 2-4 and reduce violence"
  scriptctl interpret убрать сцену 5 -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := joinArgs(args)
			mods, err := interpreter.New().Interpret(request)
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) && errors.Is(err, apperr.ErrNoRecognizedModification) {
					if details, ok := appErr.Details.(apperr.Unrecognized); ok {
						_ = render(cmd.ErrOrStderr(), opts.output, details)
					}
				}
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, model.InterpretResponse{Request: request, Modifications: mods})
		},
	}
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List example requests the interpreter understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, ex := range interpreter.Examples {
				fmt.Fprintln(cmd.OutOrStdout(), ex)
			}
			return nil
		},
	}
}
