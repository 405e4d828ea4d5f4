package main

import (
	"github.com/spf13/cobra"
)

// cli carries the resolved settings and the session factory to each command.
type cli struct {
	connect    connectFunc
	configPath string
	flags      settings
	settings   settings
}

func newRootCmd(connect connectFunc) *cobra.Command {
	c := &cli{connect: connect}

	rootCmd := &cobra.Command{
		Use:           "fsixctl",
		Short:         "Evaluate F# code with an FsiX daemon",
		Long:          "fsixctl starts an FsiX daemon in a working directory and evaluates code in it, once, interactively, or on every save of a script.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadSettings(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.flags.Init, "init", "", "init line used to start the daemon, e.g. \"fsix --proj App.fsproj\"")
	flags.StringVar(&c.flags.Command, "command", "", "daemon command: default, or a command line to spawn")
	flags.StringVar(&c.flags.Transport, "transport", "", "daemon transport: socket or stdio")
	flags.StringVar(&c.flags.WorkDir, "workdir", "", "working directory of the daemon")
	flags.StringVar(&c.configPath, "config", "", "path of the fsixctl.toml config file")

	rootCmd.AddCommand(
		newEvalCmd(c),
		newReplCmd(c),
		newWatchCmd(c),
		newProjectsCmd(c),
	)

	return rootCmd
}

func (c *cli) loadSettings(cmd *cobra.Command) error {
	path, explicit := c.configPath, cmd.Flags().Changed("config")
	if !explicit {
		path = defaultConfigPath()
	}

	fileSettings, err := loadSettings(path, explicit)
	if err != nil {
		return err
	}

	c.settings, err = fileSettings.merge(c.flags).resolve()
	return err
}
