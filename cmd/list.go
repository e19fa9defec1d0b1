package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KCuppens/bedrock-cms-sub001/internal/blocks/builtin"
	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the available block types",
	Long: `List every block type the server can render, with its label,
category, editing mode, and preload marking.

Examples:
  bedrock list                    # Table of block types
  bedrock list -f json            # Output as JSON
  bedrock list -f yaml            # Output as YAML
  bedrock list --props            # Include default props`,
	RunE: runList,
}

var (
	listFormat string
	listProps  bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&listProps, "props", false, "Include default props")
}

func runList(cmd *cobra.Command, args []string) error {
	catalog := builtin.Catalog()

	configs := make([]types.BlockConfig, 0, catalog.Len())
	for _, name := range catalog.Types() {
		if cfg, ok := catalog.Get(name); ok {
			configs = append(configs, cfg.Config)
		}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFormat) {
	case "json":
		return outputListJSON(out, configs)
	case "yaml":
		return outputListYAML(out, configs)
	case "table":
		return outputListTable(out, configs)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", listFormat)
	}
}

func listEntry(cfg types.BlockConfig) map[string]interface{} {
	item := map[string]interface{}{
		"type":         cfg.Type,
		"label":        cfg.Label,
		"category":     cfg.Category,
		"editing_mode": string(cfg.EditingMode),
		"preload":      cfg.Preload,
	}
	if cfg.Description != "" {
		item["description"] = cfg.Description
	}
	if listProps {
		item["default_props"] = cfg.DefaultProps
	}
	return item
}

func outputListJSON(w io.Writer, configs []types.BlockConfig) error {
	output := make([]map[string]interface{}, len(configs))
	for i, cfg := range configs {
		output[i] = listEntry(cfg)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputListYAML(w io.Writer, configs []types.BlockConfig) error {
	output := make([]map[string]interface{}, len(configs))
	for i, cfg := range configs {
		output[i] = listEntry(cfg)
	}

	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(output)
}

func outputListTable(w io.Writer, configs []types.BlockConfig) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	header := "TYPE\tLABEL\tCATEGORY\tMODE\tPRELOAD"
	if listProps {
		header += "\tDEFAULT PROPS"
	}
	fmt.Fprintln(tw, header)

	for _, cfg := range configs {
		preload := ""
		if cfg.Preload {
			preload = "yes"
		}
		row := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
			cfg.Type, cfg.Label, cfg.Category, cfg.EditingMode, preload)
		if listProps {
			keys := make([]string, 0, len(cfg.DefaultProps))
			for key := range cfg.DefaultProps {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			row += "\t" + strings.Join(keys, ", ")
		}
		fmt.Fprintln(tw, row)
	}

	fmt.Fprintf(tw, "\nTotal: %d block types\n", len(configs))
	return nil
}
