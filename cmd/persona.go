package cmd

import (
	"context"
	"errors"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/spf13/cobra"
)

var (
	personaName        string
	personaRole        string
	personaOrg         string
	personaIndustry    string
	personaDescription string
	personaDefault     bool
	personaJSON        bool
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage \"write as\" personas",
}

var personaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a persona",
	Example: `  growmint persona create --name "Dana" --role "Head of Sales" --org "Acme" --default`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		p := &domain.Persona{
			UserID:       userID(),
			Name:         personaName,
			RoleTitle:    personaRole,
			Organization: personaOrg,
			Industry:     personaIndustry,
			Description:  personaDescription,
			IsDefault:    personaDefault,
		}
		if err := s.CreatePersona(cmd.Context(), p); err != nil {
			return err
		}
		printf("✓ Created persona %q (%s)\n", p.Name, p.ID)
		return nil
	},
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		ps, err := s.ListPersonas(cmd.Context(), userID())
		if err != nil {
			return err
		}
		if personaJSON {
			return printJSON(ps)
		}
		if len(ps) == 0 {
			printf("(no personas)\n")
			return nil
		}
		for _, p := range ps {
			mark := " "
			if p.IsDefault {
				mark = "*"
			}
			printf("%s %s: %s, %s at %s\n", mark, p.ID, p.Name, p.RoleTitle, orDash(p.Organization))
		}
		return nil
	},
}

var personaUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update persona fields (only the flags you pass change)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		p, err := s.GetPersona(cmd.Context(), userID(), args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("name") {
			p.Name = personaName
		}
		if f.Changed("role") {
			p.RoleTitle = personaRole
		}
		if f.Changed("org") {
			p.Organization = personaOrg
		}
		if f.Changed("industry") {
			p.Industry = personaIndustry
		}
		if f.Changed("description") {
			p.Description = personaDescription
		}
		if err := s.UpdatePersona(cmd.Context(), p); err != nil {
			return err
		}
		if f.Changed("default") && personaDefault {
			if err := s.SetDefaultPersona(cmd.Context(), userID(), p.ID); err != nil {
				return err
			}
		}
		printf("✓ Updated persona %q\n", p.Name)
		return nil
	},
}

var personaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd, "Delete persona "+args[0]+"?") {
			return errAborted
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.DeletePersona(cmd.Context(), userID(), args[0]); err != nil {
			return err
		}
		printf("✓ Deleted persona %s\n", args[0])
		return nil
	},
}

var personaDefaultCmd = &cobra.Command{
	Use:   "set-default <id>",
	Short: "Make a persona the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SetDefaultPersona(cmd.Context(), userID(), args[0]); err != nil {
			return err
		}
		printf("✓ Default persona is now %s\n", args[0])
		return nil
	},
}

// personaOrDefault returns id, or the user's default persona when id is empty.
func personaOrDefault(ctx context.Context, s store.Repository, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	p, err := s.DefaultPersona(ctx, userID())
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	logger.Debug("using default persona", "persona_id", p.ID)
	return p.ID, nil
}

func init() {
	rootCmd.AddCommand(personaCmd)
	personaCmd.AddCommand(personaCreateCmd, personaListCmd, personaUpdateCmd, personaDeleteCmd, personaDefaultCmd)

	for _, c := range []*cobra.Command{personaCreateCmd, personaUpdateCmd} {
		c.Flags().StringVar(&personaName, "name", "", "persona name")
		c.Flags().StringVar(&personaRole, "role", "", "role or title")
		c.Flags().StringVar(&personaOrg, "org", "", "company or business")
		c.Flags().StringVar(&personaIndustry, "industry", "", "industry")
		c.Flags().StringVar(&personaDescription, "description", "", "voice and background notes")
		c.Flags().BoolVar(&personaDefault, "default", false, "make this the default persona")
	}
	personaListCmd.Flags().BoolVar(&personaJSON, "json", false, "print JSON")
	personaDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}
