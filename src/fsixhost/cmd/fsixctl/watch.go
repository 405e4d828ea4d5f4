package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// Editors often write a file in several steps.
const _watchDebounce = 100 * time.Millisecond

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-evaluate a script with hot reload on every save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			// The directory is watched so that saves which replace the file are seen.
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
			}

			session, err := c.connect(cmd.Context(), c.settings, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Dispose()

			return watchFile(cmd.Context(), session, path, watcher.Events, watcher.Errors, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// watchFile evaluates path now and after every write to it, until ctx is done or the session dies.
func watchFile(ctx context.Context, session entity.Session, path string, events <-chan fsnotify.Event, watchErrs <-chan error, out, errOut io.Writer) error {
	hotReload := true
	reload := func() error {
		code, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(errOut, "read %s: %v\n", path, err)
			return nil
		}
		err = evalAndPrint(ctx, session, string(code), &hotReload, out, errOut)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if errors.IsSessionDead(err) {
			return err
		}
		fmt.Fprintln(errOut, err)
		return nil
	}

	if err := reload(); err != nil {
		return err
	}

	debounce := time.NewTimer(_watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			return errors.ErrSessionNotRunning
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			debounce.Reset(_watchDebounce)
		case err, ok := <-watchErrs:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watch error: %v\n", err)
		case <-debounce.C:
			if err := reload(); err != nil {
				return err
			}
		}
	}
}
