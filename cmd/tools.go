package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/ai"
	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/ayushmankoley/GrowMint/internal/utils"
	"github.com/spf13/cobra"
)

var (
	toolProject string
	toolPersona string
	toolHint    string
	toolFields  []string
	toolSave    bool
	toolDryRun  bool
	toolOutput  string
	toolJSON    bool
	toolQuiet   bool
	toolSurface string
)

var salesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Sales generators (cold email, pitch deck, call scripts, ...)",
}

var marketingCmd = &cobra.Command{
	Use:   "marketing",
	Short: "Marketing generators (ad copy, content calendar, campaign brief, ...)",
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available generators and their fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		specs := prompt.Tools(prompt.Surface(toolSurface))
		var visible []prompt.ToolSpec
		for _, s := range specs {
			if s.Surface == prompt.SurfaceSales || s.Surface == prompt.SurfaceMarketing {
				visible = append(visible, s)
			}
		}
		if toolJSON {
			type entry struct {
				Kind        prompt.ToolKind `json:"kind"`
				Surface     prompt.Surface  `json:"surface"`
				Name        string          `json:"name"`
				Description string          `json:"description"`
				Fields      []prompt.Field  `json:"fields,omitempty"`
			}
			out := make([]entry, 0, len(visible))
			for _, s := range visible {
				out = append(out, entry{s.Kind, s.Surface, s.Name, s.Description, s.Fields})
			}
			return printJSON(out)
		}
		for _, s := range visible {
			printf("%-10s %-22s %s\n", s.Surface, s.Kind, s.Description)
		}
		return nil
	},
}

// toolCommand builds the subcommand that runs one generator.
func toolCommand(spec prompt.ToolSpec) *cobra.Command {
	return &cobra.Command{
		Use:   string(spec.Kind),
		Short: spec.Name + ": " + spec.Description,
		Long:  spec.Description + "\n\n" + fieldHelp(spec),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, spec)
		},
	}
}

func fieldHelp(spec prompt.ToolSpec) string {
	if len(spec.Fields) == 0 {
		return "This tool has no fields."
	}
	var b strings.Builder
	b.WriteString("Fields (pass with --field key=value):\n")
	for _, f := range spec.Fields {
		fmt.Fprintf(&b, "  %-20s %s", f.Key, f.Label)
		if f.Required {
			b.WriteString(" (required)")
		}
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(f.Options, "|"))
		}
		if f.Default != "" {
			fmt.Fprintf(&b, " default %q", f.Default)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func runTool(cmd *cobra.Command, spec prompt.ToolSpec) error {
	fields, err := parseFields(toolFields)
	if err != nil {
		return err
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	persist := cfg.PersistArtifacts
	if cmd.Flags().Changed("save") {
		persist = toolSave
	}
	// A dry run never reaches the model, so it needs no credentials.
	var gen generation.Generator = generation.Func(func(context.Context, string) (string, error) {
		return "", errors.New("dry run")
	})
	if !toolDryRun {
		if gen, err = newGenerator(cmd.Context()); err != nil {
			return err
		}
	}
	surf := tools.NewSurface(spec.Surface, userID(), s, prompt.NewAssembler(), gen, tools.Options{
		Persist:         persist,
		GroundingBudget: cfg.GroundingTokenBudget,
		Logger:          logger,
	})
	if err := surf.SelectTool(spec.Kind); err != nil {
		return err
	}
	persona, err := personaOrDefault(cmd.Context(), s, toolPersona)
	if err != nil {
		return err
	}
	surf.SelectProject(toolProject)
	surf.SelectPersona(persona)
	for k, v := range fields {
		surf.SetField(k, v)
	}
	surf.SetHint(toolHint)

	if toolDryRun {
		res, err := surf.Preview(cmd.Context())
		if err != nil {
			return err
		}
		warn(res.Warnings...)
		return printDryRun(res, fields)
	}

	res, err := surf.Generate(cmd.Context())
	if err != nil {
		return err
	}
	warn(res.Warnings...)
	meta := map[string]any{"tool": res.Tool, "project_id": toolProject}
	if res.Artifact != "" {
		meta["artifact_id"] = res.Artifact
	}
	if err := writeOutput(res.Content, outputOptions{JSON: toolJSON, Quiet: toolQuiet, OutputPath: toolOutput, Meta: meta}); err != nil {
		return err
	}
	if res.Artifact != "" && !toolQuiet && !toolJSON {
		printf("\n✓ Saved as artifact %s\n", res.Artifact)
	}
	return nil
}

func printDryRun(res *tools.Result, fields map[string]string) error {
	model := cfg.Model
	if model == "" {
		model = ai.DefaultModel(cfg.Provider)
	}
	var fieldText strings.Builder
	for k, v := range fields {
		fmt.Fprintf(&fieldText, "%s: %s\n", k, v)
	}
	bd := utils.TokenBreakdown(map[string]string{
		"prompt": res.Prompt,
		"fields": fieldText.String(),
		"hint":   toolHint,
	})
	if toolJSON {
		return printJSON(map[string]any{
			"tool":     res.Tool,
			"model":    model,
			"prompt":   res.Prompt,
			"tokens":   bd,
			"warnings": res.Warnings,
		})
	}
	printf("=== DRY RUN (%s, model %s) ===\n%s\n\n", res.Tool, model, res.Prompt)
	keys := make([]string, 0, len(bd))
	for k := range bd {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	printf("Token estimate:\n")
	for _, k := range keys {
		printf("  %-7s %d\n", k, bd[k])
	}
	if msg := ai.CheckPromptFits(model, bd["prompt"], cfg.MaxTokens); msg != "" {
		warn(msg)
	}
	if usd, ok := ai.EstimateCostUSD(model, bd["prompt"], cfg.MaxTokens); ok {
		printf("Estimated cost (max reply): $%.4f\n", usd)
	}
	return nil
}

// parseFields reads repeated key=value flags.
func parseFields(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, domain.Invalid("field", "%q is not key=value", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(salesCmd, marketingCmd, toolsCmd)
	for surface, parent := range map[prompt.Surface]*cobra.Command{
		prompt.SurfaceSales:     salesCmd,
		prompt.SurfaceMarketing: marketingCmd,
	} {
		for _, spec := range prompt.Tools(surface) {
			c := toolCommand(spec)
			f := c.Flags()
			f.StringVarP(&toolProject, "project", "p", "", "project ID (required)")
			f.StringVar(&toolPersona, "persona", "", "persona ID (default: your default persona)")
			f.StringVar(&toolHint, "hint", "", "extra instructions for this run")
			f.StringArrayVarP(&toolFields, "field", "f", nil, "tool field as key=value (repeatable)")
			f.BoolVar(&toolSave, "save", false, "save the output as an artifact (overrides persist_artifacts)")
			f.BoolVar(&toolDryRun, "dry-run", false, "print the prompt and token estimate without calling the model")
			f.StringVarP(&toolOutput, "output", "o", "", "also write the output to this file (.json includes metadata)")
			f.BoolVar(&toolJSON, "json", false, "print JSON")
			f.BoolVarP(&toolQuiet, "quiet", "q", false, "print only the generated text")
			parent.AddCommand(c)
		}
		parent.AddCommand(sessionCommand(surface))
	}
	toolsCmd.Flags().StringVar(&toolSurface, "surface", "", "sales|marketing")
	toolsCmd.Flags().BoolVar(&toolJSON, "json", false, "print JSON")
}
