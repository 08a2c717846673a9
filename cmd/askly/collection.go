package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCollectionCmd = &cobra.Command{
	Use:   "init-collection",
	Short: "Create the vector collection and its payload indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		if err := a.gateway.EnsureCollection(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collection ready (%s, dimension %d)\n", a.cfg.VectorStore.Type, a.cfg.Embedder.Dimensions)
		return nil
	},
}
