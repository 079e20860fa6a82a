package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var outputFmt string

var rootCmd = &cobra.Command{
	Use:   "rcsactl",
	Short: "CLI for the RCSA workflow server",
	Long: `rcsactl drives the RCSA workflow server from the command line:
master templates, approvals, publication, and assessment review.

Server URL resolution: --server flag, then RCSACTL_SERVER env var, then
an rcsactl.yaml config file in the working directory.`,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "RCSA server URL")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for authentication")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.SetEnvPrefix("rcsactl")
	viper.AutomaticEnv()
	viper.SetConfigName("rcsactl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // config file is optional
}
