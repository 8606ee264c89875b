package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/spf13/cobra"
)

var (
	sessionProject string
	sessionPersona string
	sessionSave    bool
)

const sessionHelp = `Commands:
  /tools               list this family's tools
  /tool <kind>         switch tool (results of other tools are kept)
  /field key=value     set a field of the current tool
  /hint [text]         set or clear the extra instructions
  /run                 generate with the current tool
  /regen <text>        regenerate with text as a one-off instruction
  /show [kind]         print the last result of a tool
  /form                print the current selection
  /quit                leave the session`

// sessionCommand builds the interactive session of one tool family.
func sessionCommand(family prompt.Surface) *cobra.Command {
	c := &cobra.Command{
		Use:   "open",
		Short: fmt.Sprintf("Open an interactive %s session (/tool, /run, /regen, /show)", family),
		Long:  fmt.Sprintf("Open an interactive %s session. Results stay cached per tool while you switch.\n\n%s", family, sessionHelp),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, family)
		},
	}
	f := c.Flags()
	f.StringVarP(&sessionProject, "project", "p", "", "project ID (required)")
	f.StringVar(&sessionPersona, "persona", "", "persona ID (default: your default persona)")
	f.BoolVar(&sessionSave, "save", false, "save every result as an artifact (overrides persist_artifacts)")
	return c
}

func runSession(cmd *cobra.Command, family prompt.Surface) error {
	if strings.TrimSpace(sessionProject) == "" {
		return errors.New("--project is required")
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	gen, err := newGenerator(cmd.Context())
	if err != nil {
		return err
	}
	persist := cfg.PersistArtifacts
	if cmd.Flags().Changed("save") {
		persist = sessionSave
	}
	project, err := s.GetProject(cmd.Context(), userID(), sessionProject)
	if err != nil {
		return err
	}
	persona, err := personaOrDefault(cmd.Context(), s, sessionPersona)
	if err != nil {
		return err
	}

	surf := tools.NewSurface(family, userID(), s, prompt.NewAssembler(), gen, tools.Options{
		Persist:         persist,
		GroundingBudget: cfg.GroundingTokenBudget,
		Logger:          logger,
	})
	surf.SelectProject(project.ID)
	surf.SelectPersona(persona)
	if specs := prompt.Tools(family); len(specs) > 0 {
		if err := surf.SelectTool(specs[0].Kind); err != nil {
			return err
		}
	}
	printf("%s session on %s (tool %s). Type /help for commands.\n", family, project.Name, surf.Selection().Tool)

	sc := bufio.NewScanner(cmd.InOrStdin())
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		printf("\n%s> ", surf.Selection().Tool)
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if name == "/quit" || name == "/exit" {
			return nil
		}
		if err := sessionStep(cmd, surf, family, name, arg); err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", explain(err))
		}
	}
	return sc.Err()
}

func sessionStep(cmd *cobra.Command, surf *tools.Surface, family prompt.Surface, name, arg string) error {
	switch name {
	case "/help":
		printf("%s\n", sessionHelp)
	case "/tools":
		current := surf.Selection().Tool
		for _, spec := range prompt.Tools(family) {
			mark := " "
			if spec.Kind == current {
				mark = "*"
			}
			if _, ok := surf.Cached(spec.Kind); ok {
				mark += "+"
			} else {
				mark += " "
			}
			printf("%s %-22s %s\n", mark, spec.Kind, spec.Description)
		}
	case "/tool":
		if err := surf.SelectTool(prompt.ToolKind(arg)); err != nil {
			return err
		}
		spec, _ := prompt.Lookup(prompt.ToolKind(arg))
		printf("✓ %s\n%s", spec.Name, fieldHelp(spec))
	case "/field":
		fields, err := parseFields([]string{arg})
		if err != nil {
			return err
		}
		for k, v := range fields {
			surf.SetField(k, v)
		}
	case "/hint":
		surf.SetHint(arg)
	case "/form":
		return printJSON(surf.Selection())
	case "/run":
		res, err := surf.Generate(cmd.Context())
		if err != nil {
			return err
		}
		printResult(res)
	case "/regen":
		if arg == "" {
			return errors.New("usage: /regen <instruction>")
		}
		res, err := surf.RegenerateWith(cmd.Context(), arg)
		if err != nil {
			return err
		}
		printResult(res)
	case "/show":
		kind := surf.Selection().Tool
		if arg != "" {
			kind = prompt.ToolKind(arg)
		}
		res, ok := surf.Cached(kind)
		if !ok {
			return fmt.Errorf("no %s result yet in this session", kind)
		}
		printResult(&res)
	default:
		return fmt.Errorf("unknown command %q (try /help)", name)
	}
	return nil
}

func printResult(res *tools.Result) {
	warn(res.Warnings...)
	printf("\n=== %s ===\n%s\n", res.Tool, res.Content)
	if res.Artifact != "" {
		printf("\n✓ Saved as artifact %s\n", res.Artifact)
	}
}
