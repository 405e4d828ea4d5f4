package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/spf13/cobra"
)

const (
	_replPrompt       = "> "
	_replContinuation = "- "
	_blockTerminator  = ";;"
)

func newReplCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start a line-oriented REPL",
		Long:  "Start a line-oriented REPL. A block is evaluated when a line ends with ';;' or a blank line follows it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := c.connect(cmd.Context(), c.settings, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Dispose()

			return runRepl(cmd, session, isTerminal(cmd.InOrStdin()))
		},
	}
}

func runRepl(cmd *cobra.Command, session entity.Session, interactive bool) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	var block []string
	prompt := func() {
		if !interactive {
			return
		}
		if len(block) == 0 {
			fmt.Fprint(out, _replPrompt)
		} else {
			fmt.Fprint(out, _replContinuation)
		}
	}

	flush := func() error {
		code := strings.Join(block, "\n")
		block = block[:0]
		if strings.TrimSpace(code) == "" {
			return nil
		}
		code = strings.TrimSuffix(strings.TrimSpace(code), _blockTerminator)

		err := evalAndPrint(ctx, session, code, nil, out, errOut)
		if err == nil {
			return nil
		}
		if errors.IsSessionDead(err) {
			return err
		}
		fmt.Fprintln(errOut, err)
		return nil
	}

	prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasSuffix(strings.TrimSpace(line), _blockTerminator):
			block = append(block, line)
			if err := flush(); err != nil {
				return err
			}
		default:
			block = append(block, line)
		}
		prompt()
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
