package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a document for the current user",
}

var indexName string

var indexPDFCmd = &cobra.Command{
	Use:   "pdf [file]",
	Short: "Index the text layer of a PDF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		name := indexName
		if name == "" {
			name = filepath.Base(args[0])
		}
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		svc, err := a.indexingService(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.IndexPDF(cmd.Context(), userID, data, name)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var indexTextCmd = &cobra.Command{
	Use:   "text [file|-]",
	Short: "Index plain text from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		name := indexName
		if name == "" && args[0] != "-" {
			name = filepath.Base(args[0])
		}
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		svc, err := a.indexingService(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.IndexText(cmd.Context(), userID, string(data), name)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var indexWebsiteCmd = &cobra.Command{
	Use:   "website [url...]",
	Short: "Index the visible text of one or more web pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		svc, err := a.indexingService(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			res, err := svc.IndexWebsite(cmd.Context(), userID, args[0], indexName)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}
		res, err := svc.IndexWebsites(cmd.Context(), userID, args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var indexYouTubeCmd = &cobra.Command{
	Use:   "youtube [url...]",
	Short: "Index the transcripts of one or more YouTube videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		svc, err := a.indexingService(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			res, err := svc.IndexYouTube(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}
		res, err := svc.IndexYouTubeVideos(cmd.Context(), userID, args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	for _, c := range []*cobra.Command{indexPDFCmd, indexTextCmd, indexWebsiteCmd} {
		c.Flags().StringVar(&indexName, "name", "", "Display name for the document")
	}
	indexCmd.AddCommand(indexPDFCmd, indexTextCmd, indexWebsiteCmd, indexYouTubeCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
