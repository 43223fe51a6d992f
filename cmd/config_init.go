package cmd

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/zjrosen/remote-engine-mock/internal/config"
)

var (
	initPath  string
	initForce bool
)

var configInitCmd = &cobra.Command{
	Use:   "config:init",
	Short: "Write the default config file",
	Long: `Write the commented default config to .remote-engine-mock/config.yaml,
or to --path. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := initPath
		if path == "" {
			path = localConfigPath
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return errors.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
		return err
	},
}

var configSetAddressCmd = &cobra.Command{
	Use:   "config:set-address <address>",
	Short: "Set the default address in the config file",
	Long: `Set the address key in the active config file, keeping its comments.
A running "hold" picks the change up and reconnects.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.SaveAddress(path, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "address set to %s in %s\n", args[0], path)
		return err
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&initPath, "path", "p", "", "where to write the config")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(configInitCmd, configSetAddressCmd)
}
