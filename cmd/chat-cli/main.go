package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chat-cli",
	Short: "Command-line client for the multichat server",
	Long: `chat-cli talks to a running multichat server over its HTTP API.

Examples:
  chat-cli chats create "Trip planning"
  chat-cli messages add chat_01h... --role user "Where is Kyoto?"
  chat-cli send chat_01h... --model claude-3 "Where is Kyoto?"`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

var cfgFile string

func init() {
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(sendCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.multichat.yaml)")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "Server base URL")
	rootCmd.PersistentFlags().Duration("timeout", 150*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Print raw JSON")

	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// initConfig layers flags over MULTICHAT_* variables over the optional config file.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".multichat")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("MULTICHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func newClientFromConfig() *Client {
	return NewClient(viper.GetString("server"), viper.GetDuration("timeout"))
}
