package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/allocovid/cmd/cli/chat"
	"github.com/myrjola/allocovid/cmd/cli/dataset"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(chat.Group)
	rootCmd.AddCommand(chat.Chat)
	rootCmd.AddGroup(dataset.Group)
	rootCmd.AddCommand(dataset.Check)
}

var rootCmd = &cobra.Command{
	Use:  "allocovid-cli",
	Long: `Command line utilities for AlloCovid https://github.com/myrjola/allocovid`,
	Run: func(cmd *cobra.Command, args []string) {
		// Do Stuff Here
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
