package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/intake"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears provider env so the default
// config applies. It returns the temp HOME.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "GEMINI_API_KEY_BACKUP", "GROWMINT_API_KEY", "GROWMINT_API_KEY_BACKUP", "GROWMINT_PROVIDER", "GROWMINT_DB_PATH"} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

// stubModel replaces the generation client for the test.
func stubModel(t *testing.T, reply func(prompt string) (string, error)) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	prev := newGenerator
	newGenerator = func(context.Context) (generation.Generator, error) {
		return generation.Func(func(_ context.Context, prompt string) (string, error) {
			calls.Add(1)
			return reply(prompt)
		}), nil
	}
	t.Cleanup(func() { newGenerator = prev })
	return &calls
}

// resetFlags clears values and Changed state left over from earlier runs.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setContext gives every command ctx; cobra keeps a subcommand's first
// context otherwise.
func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}

// runWith executes the root command under ctx with stdin as input and
// returns what it printed.
func runWith(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	setContext(rootCmd, ctx)
	var buf bytes.Buffer
	prev := out
	out = &buf
	defer func() { out = prev }()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// run executes the root command and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWith(t, context.Background(), "", args...)
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	s, err := run(t, args...)
	require.NoError(t, err, "command %v", args)
	return s
}

func jsonOut[T any](t *testing.T, args ...string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, args...)), &v), "command %v", args)
	return v
}

func createProject(t *testing.T, name string) domain.Project {
	t.Helper()
	mustRun(t, "project", "create", name, "-d", "B2B widgets", "--lead-source", "referral", "--priority", "high")
	for _, p := range jsonOut[[]domain.Project](t, "project", "list", "--json") {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("project %q not listed", name)
	return domain.Project{}
}

func TestCLI_ProjectContextLifecycle(t *testing.T) {
	home := isolate(t)
	p := createProject(t, "Acme")
	assert.Equal(t, domain.PriorityHigh, p.Priority)

	mustRun(t, "context", "add", "-p", p.ID, "--text", "Acme sells widgets to hospitals", "--name", "Pitch notes")
	mustRun(t, "context", "add", "-p", p.ID, "--url", "https://acme.example/about", "--title", "About Acme", "--summary", "Founded 2015", "--key-point", "ISO certified")

	brief := filepath.Join(home, "brief.md")
	require.NoError(t, os.WriteFile(brief, []byte("# Brief\n\nTarget: procurement leads."), 0o644))
	mustRun(t, "context", "add", "-p", p.ID, "--file", brief)

	items := jsonOut[[]domain.ContextItem](t, "context", "list", "-p", p.ID, "--json")
	require.Len(t, items, 3)
	assert.Equal(t, domain.KindText, items[0].Kind)
	assert.Equal(t, domain.KindURL, items[1].Kind)
	assert.Equal(t, "acme.example", items[1].Metadata.String(domain.MetaDomain))
	assert.Equal(t, domain.KindDocument, items[2].Kind)

	show := mustRun(t, "project", "show", p.ID)
	assert.Contains(t, show, "Context items: 3")
	assert.Contains(t, show, "About Acme (acme.example)")

	// Deleting the upload removes its stored copy.
	stored, ok := intake.LocalPath(items[2].Content)
	require.True(t, ok)
	require.FileExists(t, stored)
	mustRun(t, "context", "delete", items[2].ID, "--yes")
	assert.NoFileExists(t, stored)

	mustRun(t, "project", "update", p.ID, "--status", "completed", "--progress", "100")
	updated := jsonOut[struct {
		Project domain.Project `json:"project"`
	}](t, "project", "show", p.ID, "--json")
	assert.Equal(t, domain.StatusCompleted, updated.Project.Status)
	assert.Equal(t, 100, updated.Project.Progress)

	mustRun(t, "project", "delete", p.ID, "-y")
	_, err := run(t, "project", "show", p.ID)
	require.Error(t, err)
}

func TestCLI_ContextAddRequiresOneSource(t *testing.T) {
	isolate(t)
	p := createProject(t, "Solo")
	_, err := run(t, "context", "add", "-p", p.ID, "--text", "a", "--url", "https://x.example")
	require.Error(t, err)
	_, err = run(t, "context", "add", "-p", p.ID, "--url", "ftp://x.example")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCLI_SalesDryRunNeedsNoModel(t *testing.T) {
	isolate(t)
	calls := stubModel(t, func(string) (string, error) { return "unused", nil })
	p := createProject(t, "Globex")
	mustRun(t, "context", "add", "-p", p.ID, "--text", "Globex makes turbines")

	type preview struct {
		Tool   string         `json:"tool"`
		Prompt string         `json:"prompt"`
		Tokens map[string]int `json:"tokens"`
	}
	res := jsonOut[preview](t, "sales", "cold-email", "-p", p.ID, "--dry-run", "--json", "--hint", "mention the spring promo")
	assert.Equal(t, "cold-email", res.Tool)
	assert.Contains(t, res.Prompt, "Globex makes turbines")
	assert.Contains(t, res.Prompt, "mention the spring promo")
	assert.Positive(t, res.Tokens["prompt"])
	assert.Zero(t, calls.Load())
}

func TestCLI_MarketingGenerateSavesArtifactAndFile(t *testing.T) {
	home := isolate(t)
	calls := stubModel(t, func(prompt string) (string, error) {
		if !strings.Contains(prompt, "Meta") {
			return "", errors.New("platform missing from prompt")
		}
		return "Headline: Turbines that last", nil
	})
	p := createProject(t, "Initech")

	outFile := filepath.Join(home, "out", "ad.json")
	s := mustRun(t, "marketing", "ad-copy", "-p", p.ID, "-f", "platform=Meta", "--save", "-o", outFile)
	assert.Contains(t, s, "Turbines that last")
	assert.Contains(t, s, "Saved as artifact")
	assert.EqualValues(t, 1, calls.Load())

	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(b, &saved))
	assert.Equal(t, "Headline: Turbines that last", saved["content"])
	assert.NotEmpty(t, saved["artifact_id"])
}

func TestCLI_ToolFieldValidation(t *testing.T) {
	isolate(t)
	calls := stubModel(t, func(string) (string, error) { return "x", nil })
	p := createProject(t, "Hooli")

	_, err := run(t, "marketing", "content-repurposer", "-p", p.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, "marketing", "ad-copy", "-p", p.ID, "-f", "platform=Myspace")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, "sales", "cold-email", "-p", p.ID, "-f", "nokey")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestCLI_ChatSendAndFailure(t *testing.T) {
	isolate(t)
	fail := false
	stubModel(t, func(prompt string) (string, error) {
		if fail {
			return "", errors.New("model down")
		}
		return "Focus on hospitals.", nil
	})
	p := createProject(t, "Umbrella")
	mustRun(t, "chat", "new", "-p", p.ID, "-t", "Strategy")
	convs := jsonOut[[]domain.Conversation](t, "chat", "list", "--json")
	require.Len(t, convs, 1)
	id := convs[0].ID

	s := mustRun(t, "chat", "send", id, "Who should we target?")
	assert.Contains(t, s, "Focus on hospitals.")

	fail = true
	_, err := run(t, "chat", "send", id, "And next quarter?")
	require.Error(t, err)
	assert.Contains(t, explain(err), "your message was saved")

	mustRun(t, "chat", "rename", id, "Q3 strategy")
	convs = jsonOut[[]domain.Conversation](t, "chat", "list", "--json")
	assert.Equal(t, "Q3 strategy", convs[0].Title)
	mustRun(t, "chat", "delete", id, "--yes")
	assert.Contains(t, mustRun(t, "chat", "list"), "(no conversations)")
}

func TestCLI_PersonaDefaultIsExclusive(t *testing.T) {
	isolate(t)
	mustRun(t, "persona", "create", "--name", "Dana", "--role", "Head of Sales", "--default")
	mustRun(t, "persona", "create", "--name", "Lee", "--role", "CMO")
	ps := jsonOut[[]domain.Persona](t, "persona", "list", "--json")
	require.Len(t, ps, 2)

	var lee domain.Persona
	for _, p := range ps {
		if p.Name == "Lee" {
			lee = p
		}
	}
	mustRun(t, "persona", "set-default", lee.ID)
	defaults := 0
	for _, p := range jsonOut[[]domain.Persona](t, "persona", "list", "--json") {
		if p.IsDefault {
			defaults++
			assert.Equal(t, lee.ID, p.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	// Tools pick up the default persona when --persona is omitted.
	p := createProject(t, "Wayne")
	res := jsonOut[map[string]any](t, "sales", "battlecards", "-p", p.ID, "--dry-run", "--json")
	assert.Contains(t, res["prompt"], "- Name: Lee")
	assert.Contains(t, res["prompt"], "- Title: CMO")
}

func TestCLI_SummarizeFallsBackWhenModelFails(t *testing.T) {
	isolate(t)
	stubModel(t, func(string) (string, error) { return "", errors.New("quota") })
	p := createProject(t, "Stark")
	s := mustRun(t, "project", "summarize", p.ID)
	assert.Contains(t, s, "Project: Stark.")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	mustRun(t, "config", "init")
	assert.FileExists(t, filepath.Join(home, ".growmint", "config.yaml"))
	_, err := run(t, "config", "init")
	require.Error(t, err)

	mustRun(t, "config", "set", "api_key", "AIzaSyEXAMPLEKEY1234")
	mustRun(t, "config", "set", "grounding_token_budget", "5000")
	s := mustRun(t, "config", "show")
	assert.Contains(t, s, "AIza****1234")
	assert.NotContains(t, s, "EXAMPLE")
	assert.Contains(t, s, "grounding_token_budget: 5000")

	_, err = run(t, "config", "set", "temperature", "9")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, "config", "set", "nope", "1")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCLI_ToolsAndModelsListing(t *testing.T) {
	isolate(t)
	s := mustRun(t, "tools", "--surface", "sales")
	assert.Contains(t, s, "cold-email")
	assert.NotContains(t, s, "ad-copy")
	assert.NotContains(t, s, "context-summary")

	models := mustRun(t, "models", "list", "--provider", "gemini")
	assert.Contains(t, models, "gemini-2.5-flash")
}

func TestParseFields(t *testing.T) {
	got, err := parseFields([]string{"platform = Meta", "keywords=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"platform": "Meta", "keywords": "a=b"}, got)

	_, err = parseFields([]string{"=x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCLI_SalesSessionKeepsResultsAcrossTools(t *testing.T) {
	isolate(t)
	replies := []string{"email v1", "deck v1", "deck v2"}
	var prompts []string
	calls := stubModel(t, func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return replies[len(prompts)-1], nil
	})
	p := createProject(t, "Globex")

	script := strings.Join([]string{
		"/tool cold-email",
		"/hint mention the pilot",
		"/run",
		"/tool pitch-deck",
		"/run",
		"/show cold-email",
		"/regen shorter please",
		"/show",
		"/tool ad-copy",
		"/bogus",
		"/quit",
		"/run",
	}, "\n")
	s, err := runWith(t, context.Background(), script, "sales", "open", "-p", p.ID)
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, strings.Count(s, "email v1"))
	assert.Equal(t, 2, strings.Count(s, "deck v2"))
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[0], "mention the pilot")
	assert.Contains(t, prompts[2], "shorter please")
	assert.NotContains(t, prompts[2], "mention the pilot")

	_, err = run(t, "marketing", "open")
	assert.Error(t, err)
	_, err = run(t, "marketing", "open", "-p", "missing")
	assert.Error(t, err)
}

func TestCLI_InterruptCancelsGeneration(t *testing.T) {
	isolate(t)
	entered := make(chan struct{})
	var once sync.Once
	prev := newGenerator
	newGenerator = func(context.Context) (generation.Generator, error) {
		return generation.Func(func(ctx context.Context, _ string) (string, error) {
			once.Do(func() { close(entered) })
			<-ctx.Done()
			return "", ctx.Err()
		}), nil
	}
	t.Cleanup(func() { newGenerator = prev })

	p := createProject(t, "Initech")
	mustRun(t, "chat", "new", "-p", p.ID, "-t", "Pricing")
	id := jsonOut[[]domain.Conversation](t, "chat", "list", "--json")[0].ID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-entered
		cancel()
	}()
	_, err := runWith(t, ctx, "", "chat", "send", id, "What should we charge?")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, explain(err), "your message was saved")

	assert.Contains(t, mustRun(t, "chat", "open", id), "What should we charge?")
}
