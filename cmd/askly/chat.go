package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"askly/internal/logger"
	"askly/internal/tui"
)

var chatDocument string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive chat over your documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(logger.Discard())
		if err != nil {
			return err
		}
		svc, err := a.queryService(cmd.Context())
		if err != nil {
			return err
		}
		_, err = tea.NewProgram(tui.New(svc, userID, chatDocument), tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatDocument, "doc", "", "Restrict retrieval to one document id")
}
