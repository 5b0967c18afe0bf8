package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-qbank/internal/latex"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Split $...$ segments out of text (reads stdin without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		ex := latex.Extract(text)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Modified string               `json:"modified"`
			Map      latex.PlaceholderMap `json:"map"`
		}{ex.Modified, ex.Map})
	},
}

var (
	mapFile string
	legacy  bool
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct [modified-text]",
	Short: "Put placeholder contents back into text",
	Long: `Reads a placeholder map from --map (JSON object or array of
{"token","content"} pairs) and substitutes it into the modified text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mapFile == "" {
			return fmt.Errorf("--map is required")
		}
		raw, err := os.ReadFile(mapFile)
		if err != nil {
			return err
		}
		var m latex.PlaceholderMap
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("parse %s: %w", mapFile, err)
		}
		text, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		out := latex.Reconstruct(text, m)
		if legacy {
			out = latex.LegacyReconstruct(text, m)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	reconstructCmd.Flags().StringVar(&mapFile, "map", "", "placeholder map JSON file")
	reconstructCmd.Flags().BoolVar(&legacy, "legacy", false, "replace by value in map order (older behavior)")
}

func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
