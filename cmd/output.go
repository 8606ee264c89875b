package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/grounding"
	"github.com/ayushmankoley/GrowMint/internal/intake"
	"github.com/ayushmankoley/GrowMint/internal/utils"
	"github.com/spf13/cobra"
)

func printJSON(v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	printf("%s\n", b)
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// describeItem is the one-line listing of a context item.
func describeItem(it domain.ContextItem) string {
	switch it.Kind {
	case domain.KindURL:
		if sp, ok := it.Metadata.Scraped(); ok && sp.Title != "" {
			d := it.Metadata.String(domain.MetaDomain)
			if d == "" {
				d = "Website"
			}
			return fmt.Sprintf("%s (%s)", sp.Title, d)
		}
		return it.Content
	case domain.KindDocument, domain.KindImage:
		name := grounding.FileName(it.Metadata)
		if n := it.Metadata.Int(domain.MetaFileSize); n > 0 {
			name += " (" + intake.HumanSize(n) + ")"
		}
		if p := it.Metadata.String(domain.MetaPreview); p != "" {
			name += ": " + p
		}
		return name
	default:
		if n := it.Metadata.String(domain.MetaName); n != "" {
			return n + ": " + utils.Excerpt(it.Content, 20)
		}
		return utils.Excerpt(it.Content, 20)
	}
}

type outputOptions struct {
	JSON       bool
	Quiet      bool
	OutputPath string
	Meta       map[string]any
}

// writeOutput prints generated content and optionally saves it to a file.
// A .json output path gets the content with its metadata.
func writeOutput(content string, opts outputOptions) error {
	if opts.JSON {
		m := map[string]any{"content": content}
		for k, v := range opts.Meta {
			m[k] = v
		}
		if err := printJSON(m); err != nil {
			return err
		}
	} else if opts.Quiet {
		printf("%s\n", content)
	} else {
		printf("\n=== AI Response ===\n%s\n", content)
	}

	if opts.OutputPath == "" {
		return nil
	}
	data := []byte(content)
	if strings.HasSuffix(strings.ToLower(opts.OutputPath), ".json") {
		m := map[string]any{"content": content}
		for k, v := range opts.Meta {
			m[k] = v
		}
		b, err := utils.PrettyJSON(m)
		if err != nil {
			return err
		}
		data = b
	}
	if err := utils.SafeWriteFile(opts.OutputPath, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "✓ Saved output to %s\n", opts.OutputPath)
	}
	return nil
}

var assumeYes bool

// confirm asks on the command's input unless --yes was given.
func confirm(cmd *cobra.Command, question string) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// errAborted is returned when a confirmation is declined.
var errAborted = errors.New("aborted")
