package cmd

import (
	"fmt"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/grounding"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/spf13/cobra"
)

var (
	projDesc       string
	projLeadSource string
	projPriority   string
	projStatus     string
	projProgress   int
	projName       string
	projJSON       bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects (leads and campaigns)",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority, err := domain.ParsePriority(projPriority)
		if err != nil {
			return err
		}
		status, err := domain.ParseStatus(projStatus)
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		p := &domain.Project{
			UserID:      userID(),
			Name:        strings.TrimSpace(args[0]),
			Description: projDesc,
			LeadSource:  projLeadSource,
			Priority:    priority,
			Status:      status,
			Progress:    projProgress,
		}
		if err := s.CreateProject(cmd.Context(), p); err != nil {
			return err
		}
		printf("✓ Created project %q (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		projects, err := s.ListProjects(cmd.Context(), userID())
		if err != nil {
			return err
		}
		if projJSON {
			return printJSON(projects)
		}
		if len(projects) == 0 {
			printf("(no projects)\n")
			return nil
		}
		for _, p := range projects {
			printf("- %s: %s [%s, %s priority, %d%%]\n", p.ID, p.Name, p.Status, p.Priority, p.Progress)
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project with its context and token usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		p, err := s.GetProject(cmd.Context(), userID(), args[0])
		if err != nil {
			return err
		}
		items, err := s.ListContextItems(cmd.Context(), userID(), p.ID)
		if err != nil {
			return err
		}
		if projJSON {
			return printJSON(map[string]any{"project": p, "context": items})
		}
		printf("Project: %s (%s)\n", p.Name, p.ID)
		printf("  Description: %s\n", orDash(p.Description))
		printf("  Lead source: %s\n", orDash(p.LeadSource))
		printf("  Status: %s  Priority: %s  Progress: %d%%\n", p.Status, p.Priority, p.Progress)
		printf("  Updated: %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		if p.ContextSummary != "" {
			printf("\nAI Summary:\n%s\n", p.ContextSummary)
		}
		printf("\nContext items: %d\n", len(items))
		for _, it := range items {
			printf("  - %s\n", describeItem(it))
		}
		doc := grounding.Build(items)
		printf("\nGrounding: ~%d tokens\n", doc.Tokens)
		if w, over := grounding.CheckBudget(doc, cfg.GroundingTokenBudget); over {
			warn(w.String())
		}
		return nil
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update project fields (only the flags you pass change)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch domain.ProjectPatch
		f := cmd.Flags()
		if f.Changed("name") {
			patch.Name = &projName
		}
		if f.Changed("description") {
			patch.Description = &projDesc
		}
		if f.Changed("lead-source") {
			patch.LeadSource = &projLeadSource
		}
		if f.Changed("priority") {
			pr, err := domain.ParsePriority(projPriority)
			if err != nil {
				return err
			}
			patch.Priority = &pr
		}
		if f.Changed("status") {
			st, err := domain.ParseStatus(projStatus)
			if err != nil {
				return err
			}
			patch.Status = &st
		}
		if f.Changed("progress") {
			patch.Progress = &projProgress
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		p, err := s.UpdateProject(cmd.Context(), userID(), args[0], patch)
		if err != nil {
			return err
		}
		printf("✓ Updated project %q\n", p.Name)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project with its context, conversations and saved outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd, "Delete project "+args[0]+" with all its context, conversations and saved outputs?") {
			return errAborted
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.DeleteProject(cmd.Context(), userID(), args[0]); err != nil {
			return err
		}
		printf("✓ Deleted project %s\n", args[0])
		return nil
	},
}

var projectSummarizeCmd = &cobra.Command{
	Use:   "summarize <id>",
	Short: "Regenerate the project's AI summary from its context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		gen, err := newGenerator(cmd.Context())
		if err != nil {
			return err
		}
		sum, err := tools.NewSummarizer(userID(), s, prompt.NewAssembler(), gen, logger).Summarize(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if sum.Fallback {
			warn(fmt.Sprintf("model unavailable, saved a basic summary instead (%s)", explain(sum.Err)))
		}
		printf("✓ Summary saved for %q\n\n%s\n", sum.Project.Name, sum.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd, projectUpdateCmd, projectDeleteCmd, projectSummarizeCmd)

	for _, c := range []*cobra.Command{projectCreateCmd, projectUpdateCmd} {
		c.Flags().StringVarP(&projDesc, "description", "d", "", "project description")
		c.Flags().StringVar(&projLeadSource, "lead-source", "", "where the lead came from")
		c.Flags().StringVar(&projPriority, "priority", "", "low|medium|high")
		c.Flags().StringVar(&projStatus, "status", "", "draft|active|completed")
		c.Flags().IntVar(&projProgress, "progress", 0, "progress percentage (0-100)")
	}
	projectUpdateCmd.Flags().StringVar(&projName, "name", "", "new project name")
	projectListCmd.Flags().BoolVar(&projJSON, "json", false, "print JSON")
	projectShowCmd.Flags().BoolVar(&projJSON, "json", false, "print JSON")
	projectDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}
