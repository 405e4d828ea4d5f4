package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newEvalCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "eval [code|-]",
		Short: "Evaluate code once",
		Long:  "Evaluate code once and print its output and value. The code is read from stdin when it is '-' or omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(code) == "" {
				return fmt.Errorf("no code to evaluate")
			}

			session, err := c.connect(cmd.Context(), c.settings, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Dispose()

			return evalAndPrint(cmd.Context(), session, code, nil, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func readCode(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read code from stdin: %w", err)
	}
	return string(data), nil
}
