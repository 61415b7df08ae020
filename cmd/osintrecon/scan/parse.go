package scan

import (
	"fmt"
	"io"
	"os"

	"osintrecon/internal/services"
	"osintrecon/pkg/output"
	"osintrecon/pkg/parsers"
	"osintrecon/pkg/tools"

	"github.com/spf13/cobra"
)

// NewParseCommand re-parses saved tool output without running a container.
func NewParseCommand() *cobra.Command {
	var asJSON bool

	parseCmd := &cobra.Command{
		Use:   "parse <tool> <file|->",
		Short: "Extract findings from saved tool output",
		Long:  `Run the theHarvester or Amass output parser over a file, or stdin when the file is "-"`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			tool, err := tools.ParseScanTool(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return fmt.Errorf("read tool output: %w", err)
			}

			findings, err := parsers.Parse(tool, string(data))
			if err != nil {
				return err
			}

			if asJSON {
				return output.WriteJSON(cmd.OutOrStdout(), findings)
			}
			output.WriteFindingsTable(cmd.OutOrStdout(), findings, noColor(cmd))
			return nil
		},
	}

	parseCmd.Flags().BoolVar(&asJSON, "json", false, "Print findings as JSON")
	return parseCmd
}

// NewToolsCommand lists the tools the catalog can run.
func NewToolsCommand() *cobra.Command {
	var asJSON bool

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List supported OSINT tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := tools.LoadCatalog(cfg.Tools.CatalogFile)
			if err != nil {
				return err
			}

			if asJSON {
				return output.WriteJSON(cmd.OutOrStdout(), services.NewCatalogService(catalog).GetScanTools())
			}
			output.WriteToolsTable(cmd.OutOrStdout(), catalog.Tools(), noColor(cmd))
			return nil
		},
	}

	toolsCmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return toolsCmd
}
