package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/conversation"
	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/spf13/cobra"
)

var (
	chatProject string
	chatPersona string
	chatTitle   string
	chatJSON    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Converse with the assistant about a project",
}

// chatManager opens the store and a conversation manager; close the store when done.
func chatManager(cmd *cobra.Command, withGenerator bool) (*conversation.Manager, *store.SQLiteStore, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	var gen generation.Generator
	if withGenerator {
		if gen, err = newGenerator(cmd.Context()); err != nil {
			s.Close()
			return nil, nil, err
		}
	}
	m := conversation.NewManager(userID(), s, prompt.NewAssembler(), gen, conversation.Options{
		GroundingBudget: cfg.GroundingTokenBudget,
		Logger:          logger,
	})
	return m, s, nil
}

var chatNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a conversation on a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, s, err := chatManager(cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		title := chatTitle
		if strings.TrimSpace(title) == "" {
			title = "New conversation"
		}
		persona, err := personaOrDefault(cmd.Context(), s, chatPersona)
		if err != nil {
			return err
		}
		c, err := m.Create(cmd.Context(), conversation.CreateInput{ProjectID: chatProject, PersonaID: persona, Title: title})
		if err != nil {
			return err
		}
		printf("✓ Created conversation %q (%s)\n", c.Title, c.ID)
		return nil
	},
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recently active first",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, s, err := chatManager(cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		cs, err := m.List(cmd.Context())
		if err != nil {
			return err
		}
		if chatJSON {
			return printJSON(cs)
		}
		if len(cs) == 0 {
			printf("(no conversations)\n")
			return nil
		}
		for _, c := range cs {
			printf("- %s: %s [project %s, %s]\n", c.ID, c.Title, c.ProjectID, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var chatRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, s, err := chatManager(cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := m.Rename(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		printf("✓ Renamed conversation %s\n", args[0])
		return nil
	},
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd, "Delete conversation "+args[0]+" and its messages?") {
			return errAborted
		}
		m, s, err := chatManager(cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := m.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		printf("✓ Deleted conversation %s\n", args[0])
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <id> <message>",
	Short: "Send one message and print the reply",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, s, err := chatManager(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := m.Select(cmd.Context(), args[0]); err != nil {
			return err
		}
		return sendAndPrint(cmd, m, args[1])
	},
}

var chatOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open an interactive session (/history, /quit)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, s, err := chatManager(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := m.Select(cmd.Context(), args[0]); err != nil {
			return err
		}
		c := m.Current()
		printf("Conversation %q", c.Title)
		if p := m.Project(); p != nil {
			printf(" on %s", p.Name)
		}
		if doc, ok := m.Grounding(); ok {
			printf(" (%d context items, ~%d tokens)", doc.Items, doc.Tokens)
		}
		printf("\n")
		printHistory(m.History())

		sc := bufio.NewScanner(cmd.InOrStdin())
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for {
			printf("\n> ")
			if !sc.Scan() {
				break
			}
			line := strings.TrimSpace(sc.Text())
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/history":
				printHistory(m.History())
				continue
			}
			if err := sendAndPrint(cmd, m, line); err != nil {
				var reply *conversation.ReplyError
				if !errors.As(err, &reply) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", explain(err))
			}
		}
		return sc.Err()
	},
}

func sendAndPrint(cmd *cobra.Command, m *conversation.Manager, text string) error {
	res, err := m.Send(cmd.Context(), text)
	if res != nil {
		warn(res.Warnings...)
	}
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	if chatJSON {
		return printJSON(res)
	}
	printf("\nAssistant: %s\n", res.Reply.Content)
	return nil
}

func printHistory(msgs []domain.Message) {
	for _, msg := range msgs {
		printf("\n%s: %s\n", msg.Role.Label(), msg.Content)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatNewCmd, chatListCmd, chatRenameCmd, chatDeleteCmd, chatSendCmd, chatOpenCmd)

	chatNewCmd.Flags().StringVarP(&chatProject, "project", "p", "", "project ID")
	chatNewCmd.Flags().StringVar(&chatPersona, "persona", "", "persona ID (default: your default persona)")
	chatNewCmd.Flags().StringVarP(&chatTitle, "title", "t", "", "conversation title")
	chatListCmd.Flags().BoolVar(&chatJSON, "json", false, "print JSON")
	chatSendCmd.Flags().BoolVar(&chatJSON, "json", false, "print JSON")
	chatDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}
