package cmd

import (
	"fmt"

	"github.com/ayushmankoley/GrowMint/internal/ai"
	"github.com/ayushmankoley/GrowMint/internal/utils"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog used for context-window and cost estimates",
	Example: `  growmint models list
  growmint models list --provider gemini
  growmint models sync --file ./models.json
  growmint models sync --provider openrouter --output models.json`,
}

var (
	listProvider string
	listJSON     bool
)

var modelsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"show"},
	Short:   "List the current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		var list []ai.ModelInfo
		for _, m := range ai.Catalog() {
			if listProvider == "" || m.Provider == ai.NormalizeProvider(listProvider) {
				list = append(list, m)
			}
		}
		if listJSON {
			return printJSON(list)
		}
		for _, m := range list {
			printf("%-11s %-40s %9d tok  $%.5f/$%.5f per 1K\n", m.Provider, m.Name, m.ContextTokens, m.InputPerK, m.OutputPerK)
		}
		return nil
	},
}

var (
	syncPath     string
	syncProvider string
	syncOutput   string
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge catalog entries from a JSON file or a built-in provider preset",
	Long: `Merge catalog entries into the in-memory catalog for this run. To keep them,
write them with --output and point models_catalog at the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			m   map[string]ai.ModelInfo
			err error
		)
		switch {
		case syncPath != "":
			if m, err = ai.LoadCatalogFromJSON(syncPath); err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
		case syncProvider != "":
			var ok bool
			if m, ok = ai.PresetCatalog(ai.NormalizeProvider(syncProvider)); !ok {
				return fmt.Errorf("no built-in preset for provider %q (known: %v)", syncProvider, ai.Providers())
			}
		default:
			return fmt.Errorf("--file or --provider is required")
		}
		ai.MergeCatalog(m)
		printf("✓ Merged %d catalog entries\n", len(m))
		if syncOutput != "" {
			b, err := utils.PrettyJSON(m)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(syncOutput, b); err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			printf("✓ Saved catalog to %s\n", syncOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsSyncCmd)

	modelsListCmd.Flags().StringVar(&listProvider, "provider", "", "only show this provider's models")
	modelsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to a JSON catalog file")
	modelsSyncCmd.Flags().StringVar(&syncProvider, "provider", "", "built-in provider preset (gemini, openrouter, ollama)")
	modelsSyncCmd.Flags().StringVar(&syncOutput, "output", "", "optional path to save the merged entries")
}
