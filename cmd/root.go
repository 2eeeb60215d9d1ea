package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "linkrank",
	Short: "Iterative PageRank over in-link adjacency files",
	Long: `linkrank computes the PageRank distribution of a web corpus from an
in-link file (one page per line: the page ID followed by the IDs of the pages
linking to it), iterating until the perplexity of the distribution settles.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .linkrank.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print every iteration")
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".linkrank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// bindFlags binds the named flags of cmd to config keys. Binding happens at
// run time so commands sharing a key do not overwrite each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig binds cmd's flags and loads the effective configuration.
func loadConfig(cmd *cobra.Command, keys map[string]string) (config.Config, error) {
	keys["verbose"] = "verbose"
	if err := bindFlags(cmd, keys); err != nil {
		return config.Config{}, err
	}
	return config.Load()
}
