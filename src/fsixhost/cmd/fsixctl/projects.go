package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	workspaceutils "github.com/fsixnotebook/fsix-host/src/fsixhost/internal/workspace-utils"
	"github.com/spf13/cobra"
)

func newProjectsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "projects [root]",
		Short: "List init lines for the solutions and projects under root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := c.settings.WorkDir
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				root = abs
			}

			utils := workspaceutils.New(workspaceutils.Params{
				Logger: newLogger(cmd.ErrOrStderr()),
				FS:     fs.New(),
			})
			projects, err := utils.FindProjects(cmd.Context(), root)
			if err != nil {
				return err
			}

			for _, p := range projects {
				fmt.Fprintln(cmd.OutOrStdout(), p.InitLine)
			}
			return nil
		},
	}
}
