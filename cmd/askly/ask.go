package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"askly/internal/service"
)

var askDocument string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from your documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		svc, err := a.queryService(cmd.Context())
		if err != nil {
			return err
		}
		ans, err := svc.Answer(cmd.Context(), service.AnswerRequest{
			UserID:     userID,
			Question:   strings.Join(args, " "),
			DocumentID: askDocument,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ans.Text)
		if len(ans.Sources) > 0 {
			fmt.Fprintln(out)
			for _, s := range ans.Sources {
				fmt.Fprintf(out, "  %s: %s (chunk %d, score %.3f)\n", s.Label, s.Name, s.ChunkIndex, s.Score)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askDocument, "doc", "", "Restrict retrieval to one document id")
}
