package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/intake"
	"github.com/spf13/cobra"
)

var (
	ctxProject   string
	ctxText      string
	ctxURL       string
	ctxFile      string
	ctxName      string
	ctxTitle     string
	ctxSummary   string
	ctxKeyPoints []string
	ctxBusiness  string
	ctxJSON      bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage a project's context items",
}

var contextAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Attach text, a website or a file to a project",
	Example: `  growmint context add -p <project-id> --text "Acme sells B2B widgets"
  growmint context add -p <project-id> --url https://acme.example --title "Acme" --summary "..." --key-point "Founded 2015"
  growmint context add -p <project-id> --file ./brief.docx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ctxProject == "" {
			return fmt.Errorf("--project is required")
		}
		set := 0
		for _, v := range []string{ctxText, ctxURL, ctxFile} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return errors.New("specify exactly one of --text, --url or --file")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		var item *domain.ContextItem
		switch {
		case ctxText != "":
			item = &domain.ContextItem{ProjectID: ctxProject, Kind: domain.KindText, Content: ctxText}
			if ctxName != "" {
				item.Metadata = domain.Metadata{domain.MetaName: ctxName}
			}
		case ctxURL != "":
			item, err = urlItem(ctxProject, ctxURL)
			if err != nil {
				return err
			}
		default:
			// Check ownership before copying the file.
			if _, err := s.GetProject(cmd.Context(), userID(), ctxProject); err != nil {
				return err
			}
			up := intake.New(cfg.UploadsDir, intake.WithLogger(logger))
			item, err = up.Item(ctxProject, ctxFile, ctxName)
			if err != nil {
				return err
			}
			if err := s.AddContextItem(cmd.Context(), userID(), item); err != nil {
				_ = up.Remove(item.Content)
				return err
			}
			printf("✓ Added %s %s\n", item.Kind, describeItem(*item))
			return nil
		}
		if err := s.AddContextItem(cmd.Context(), userID(), item); err != nil {
			return err
		}
		printf("✓ Added %s item %s\n", item.Kind, item.ID)
		return nil
	},
}

// urlItem builds a url item from the scraped-record flags.
func urlItem(projectID, raw string) (*domain.ContextItem, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, domain.Invalid("url", "must be an absolute http(s) URL")
	}
	md := domain.Metadata{domain.MetaDomain: u.Hostname()}
	if ctxName != "" {
		md[domain.MetaName] = ctxName
	}
	if ctxTitle != "" || ctxSummary != "" || len(ctxKeyPoints) > 0 || ctxBusiness != "" {
		md[domain.MetaScrapedData] = domain.ScrapedPage{
			Title:        ctxTitle,
			Summary:      ctxSummary,
			KeyPoints:    ctxKeyPoints,
			BusinessInfo: ctxBusiness,
		}
		md[domain.MetaWordCount] = len(strings.Fields(ctxSummary + " " + strings.Join(ctxKeyPoints, " ") + " " + ctxBusiness))
		md[domain.MetaScrapedAt] = time.Now().UTC().Format(time.RFC3339)
	}
	return &domain.ContextItem{ProjectID: projectID, Kind: domain.KindURL, Content: raw, Metadata: md}, nil
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's context items, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ctxProject == "" {
			return fmt.Errorf("--project is required")
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if _, err := s.GetProject(cmd.Context(), userID(), ctxProject); err != nil {
			return err
		}
		items, err := s.ListContextItems(cmd.Context(), userID(), ctxProject)
		if err != nil {
			return err
		}
		if ctxJSON {
			return printJSON(items)
		}
		if len(items) == 0 {
			printf("(no context items)\n")
			return nil
		}
		for _, it := range items {
			printf("- %s [%s] %s\n", it.ID, it.Kind, describeItem(it))
		}
		return nil
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Delete a context item (and its stored file)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd, "Delete context item "+args[0]+"?") {
			return errAborted
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		item, err := s.GetContextItem(cmd.Context(), userID(), args[0])
		if err != nil {
			return err
		}
		if err := s.DeleteContextItem(cmd.Context(), userID(), item.ID); err != nil {
			return err
		}
		if err := intake.New(cfg.UploadsDir, intake.WithLogger(logger)).Remove(item.Content); err != nil {
			warn("stored file not removed: " + err.Error())
		}
		printf("✓ Deleted context item %s\n", item.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.AddCommand(contextAddCmd, contextListCmd, contextDeleteCmd)

	for _, c := range []*cobra.Command{contextAddCmd, contextListCmd} {
		c.Flags().StringVarP(&ctxProject, "project", "p", "", "project ID")
	}
	contextAddCmd.Flags().StringVar(&ctxText, "text", "", "free-text note")
	contextAddCmd.Flags().StringVar(&ctxURL, "url", "", "website URL")
	contextAddCmd.Flags().StringVar(&ctxFile, "file", "", "path of a document or image to upload")
	contextAddCmd.Flags().StringVar(&ctxName, "name", "", "display name")
	contextAddCmd.Flags().StringVar(&ctxTitle, "title", "", "page title (with --url)")
	contextAddCmd.Flags().StringVar(&ctxSummary, "summary", "", "page summary (with --url)")
	contextAddCmd.Flags().StringArrayVar(&ctxKeyPoints, "key-point", nil, "key point, repeatable (with --url)")
	contextAddCmd.Flags().StringVar(&ctxBusiness, "business-info", "", "business information (with --url)")
	contextListCmd.Flags().BoolVar(&ctxJSON, "json", false, "print JSON")
	contextDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}
