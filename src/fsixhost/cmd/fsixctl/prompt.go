package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/mattn/go-isatty"
)

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newTerminalPrompter asks on the terminal whether to install the daemon.
// Without a terminal the install is declined.
func newTerminalPrompter(in io.Reader, out io.Writer) launcher.Prompter {
	if !isTerminal(in) {
		return launcher.PrompterFunc(func(context.Context, string) (entity.InstallChoice, error) {
			return entity.InstallDeclined, nil
		})
	}
	return linePrompter(bufio.NewReader(in), out)
}

func linePrompter(in *bufio.Reader, out io.Writer) launcher.Prompter {
	return launcher.PrompterFunc(func(ctx context.Context, workDir string) (entity.InstallChoice, error) {
		fmt.Fprintf(out, "The FsiX daemon is not installed for %s.\nInstall it? [g]lobally / [l]ocally / [N]o: ", workDir)
		answer, err := in.ReadString('\n')
		if err != nil && answer == "" {
			if err == io.EOF {
				return entity.InstallDeclined, nil
			}
			return entity.InstallDeclined, err
		}
		return parseInstallAnswer(answer), nil
	})
}

func parseInstallAnswer(answer string) entity.InstallChoice {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "g", "global", "globally":
		return entity.InstallGlobal
	case "l", "local", "locally":
		return entity.InstallLocal
	default:
		return entity.InstallDeclined
	}
}
