package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
)

func newModelsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [search]",
		Short: "List catalog models, optionally matching a search term",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capFlag, _ := cmd.Flags().GetString("capability")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			var capability model.Capability
			if capFlag != "" {
				c, err := model.ParseCapability(capFlag)
				if err != nil {
					return err
				}
				capability = c
			}

			cfg, log, err := setup(cmd, g)
			if err != nil {
				return err
			}

			client := openrouter.New(cfg, openrouter.WithLogger(log))

			var models []model.Descriptor
			if len(args) == 1 {
				models, err = client.FindModels(cmd.Context(), args[0])
			} else {
				models, err = client.ListModels(cmd.Context())
			}
			if err != nil {
				return err
			}

			models = model.Filter(models, capability)
			if limit > 0 && len(models) > limit {
				models = models[:limit]
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(models)
			}

			if len(models) == 0 {
				_, err := fmt.Fprintln(out, "No models found")
				return err
			}

			printModelTable(out, models)

			return nil
		},
	}

	cmd.Flags().StringP("capability", "c", "", "filter by capability: vision, image_gen, embedding, tools or long_context")
	cmd.Flags().IntP("limit", "l", 0, "maximum number of models (0 for all)")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")

	return cmd
}

func printModelTable(w io.Writer, models []model.Descriptor) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Context", "Capabilities", "Prompt", "Completion"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, m := range models {
		caps := make([]string, len(m.Capabilities))
		for i, c := range m.Capabilities {
			caps[i] = string(c)
		}

		table.Append([]string{
			m.ID,
			m.Name,
			strconv.Itoa(m.ContextLength),
			strings.Join(caps, ","),
			m.Pricing.Prompt,
			m.Pricing.Completion,
		})
	}

	table.Render()
}
