package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	userID  string
)

var rootCmd = &cobra.Command{
	Use:   "askly",
	Short: "Ask questions about your PDFs, notes, web pages and videos",
	Long: `askly indexes documents into a vector store and answers questions
grounded in them. Run "askly serve" for the HTTP API or use the
subcommands to index and query from the terminal.`,
	SilenceUsage: true,
}

func init() {
	defaultUser := os.Getenv("ASKLY_USER")
	if defaultUser == "" {
		defaultUser = "local"
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (uses ./config.yaml or ~/.config/askly/config.yaml if not provided)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", defaultUser, "User the documents belong to")

	rootCmd.AddCommand(serveCmd, indexCmd, docsCmd, askCmd, chatCmd, initCollectionCmd, configCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
