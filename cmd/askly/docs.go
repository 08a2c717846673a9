package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List or delete indexed documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current user's documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		docs, err := a.gateway.ListDocuments(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSOURCE\tNAME\tCHUNKS\tUPLOADED")
		for _, d := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", d.ID, d.Type, d.Name, d.ChunkCount, d.UploadedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [documentId]",
	Short: "Delete a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		if err := a.gateway.DeleteDocument(cmd.Context(), userID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsListCmd, docsDeleteCmd)
}
