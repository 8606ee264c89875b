package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGen struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	gate    chan struct{}
}

func (f *fakeGen) Generate(ctx context.Context, p string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeGen) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGen) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

// countingRepo counts message writes on top of the real store.
type countingRepo struct {
	store.Repository
	appends atomic.Int32
}

func (r *countingRepo) AppendMessage(ctx context.Context, userID string, m *domain.Message) error {
	r.appends.Add(1)
	return r.Repository.AppendMessage(ctx, userID, m)
}

type fixture struct {
	repo    *countingRepo
	gen     *fakeGen
	mgr     *Manager
	project *domain.Project
}

func setup(t *testing.T, gen *fakeGen) *fixture {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "conv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	repo := &countingRepo{Repository: s}
	p := &domain.Project{UserID: "u1", Name: "Acme"}
	require.NoError(t, s.CreateProject(context.Background(), p))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := NewManager("u1", repo, prompt.NewAssembler(), gen, Options{Logger: logger})
	return &fixture{repo: repo, gen: gen, mgr: mgr, project: p}
}

func (f *fixture) create(t *testing.T) *domain.Conversation {
	t.Helper()
	c, err := f.mgr.Create(context.Background(), CreateInput{ProjectID: f.project.ID, Title: "Discovery"})
	require.NoError(t, err)
	return c
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t, &fakeGen{})
	_, err := f.mgr.Create(context.Background(), CreateInput{ProjectID: f.project.ID, Title: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.mgr.Create(context.Background(), CreateInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, NoConversation, f.mgr.State())
}

func TestCreate_SelectsEmptyConversation(t *testing.T) {
	f := setup(t, &fakeGen{})
	c := f.create(t)
	assert.Equal(t, Ready, f.mgr.State())
	assert.Equal(t, c.ID, f.mgr.Current().ID)
	assert.Empty(t, f.mgr.History())
	doc, loaded := f.mgr.Grounding()
	assert.True(t, loaded)
	assert.True(t, doc.Empty())
}

func TestSend_WhitespaceIsNoop(t *testing.T) {
	f := setup(t, &fakeGen{reply: "hi"})
	f.create(t)

	res, err := f.mgr.Send(context.Background(), " \n\t ")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Zero(t, f.repo.appends.Load())
	assert.Zero(t, f.gen.calls())
}

func TestSend_SuccessEndsWithUserThenAssistant(t *testing.T) {
	f := setup(t, &fakeGen{reply: "Acme sells widgets."})
	c := f.create(t)
	ctx := context.Background()
	require.NoError(t, f.repo.AddContextItem(ctx, "u1", &domain.ContextItem{ProjectID: f.project.ID, Kind: domain.KindText, Content: "Acme sells B2B widgets"}))

	res, err := f.mgr.Send(ctx, "what does Acme sell?")
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, domain.RoleUser, res.Messages[0].Role)
	assert.Equal(t, "what does Acme sell?", res.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, res.Messages[1].Role)
	assert.Equal(t, "Acme sells widgets.", res.Reply.Content)
	assert.Empty(t, res.Warnings)

	// grounding added after Select is used at send time
	assert.Contains(t, f.gen.lastPrompt(), "Acme sells B2B widgets")

	stored, err := f.repo.ListMessages(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Messages, stored)
}

func TestSend_PromptUsesPriorHistoryOnly(t *testing.T) {
	f := setup(t, &fakeGen{reply: "answer one"})
	f.create(t)
	ctx := context.Background()

	_, err := f.mgr.Send(ctx, "question one")
	require.NoError(t, err)
	first := f.gen.lastPrompt()
	assert.NotContains(t, first, "Previous Conversation:")

	_, err = f.mgr.Send(ctx, "question two")
	require.NoError(t, err)
	second := f.gen.lastPrompt()
	assert.Contains(t, second, "Previous Conversation:\nUser: question one\nAssistant: answer one")
	assert.NotContains(t, second, "User: question two")
	assert.Contains(t, second, "Current User Message: question two")
}

func TestSend_FailureKeepsUserMessage(t *testing.T) {
	f := setup(t, &fakeGen{err: &generation.FallbackError{Primary: errors.New("p"), Secondary: errors.New("s")}})
	c := f.create(t)
	ctx := context.Background()

	res, err := f.mgr.Send(ctx, "hello?")
	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "hello?", re.UserMessage.Content)
	var fe *generation.FallbackError
	assert.ErrorAs(t, err, &fe)

	require.NotNil(t, res)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, domain.RoleUser, res.Messages[0].Role)

	stored, err := f.repo.ListMessages(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hello?", stored[0].Content)
	assert.Equal(t, Ready, f.mgr.State())
}

func TestSend_EmptyGroundingWarnsAndDiscloses(t *testing.T) {
	f := setup(t, &fakeGen{reply: "I don't have enough information"})
	f.create(t)

	res, err := f.mgr.Send(context.Background(), "what does this company do?")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, f.gen.lastPrompt(), prompt.DisclosureClause)
	assert.Equal(t, "I don't have enough information", res.Reply.Content)
}

func TestSend_BusyWhileGenerating(t *testing.T) {
	gen := &fakeGen{reply: "done", gate: make(chan struct{})}
	f := setup(t, gen)
	f.create(t)

	errc := make(chan error, 1)
	go func() {
		_, err := f.mgr.Send(context.Background(), "first")
		errc <- err
	}()
	require.Eventually(t, func() bool { return f.mgr.State() == Generating }, 2*time.Second, 5*time.Millisecond)

	_, err := f.mgr.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.mgr.Select(context.Background(), f.mgr.Current().ID), ErrBusy)

	close(gen.gate)
	require.NoError(t, <-errc)
	assert.Equal(t, 1, gen.calls())
	assert.Equal(t, Ready, f.mgr.State())
}

func TestSend_NoSelection(t *testing.T) {
	f := setup(t, &fakeGen{})
	_, err := f.mgr.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSelect_MissingConversation(t *testing.T) {
	f := setup(t, &fakeGen{})
	assert.ErrorIs(t, f.mgr.Select(context.Background(), "nope"), store.ErrNotFound)
}

func TestSelect_LoadsPersonaAndHistory(t *testing.T) {
	f := setup(t, &fakeGen{reply: "ok"})
	ctx := context.Background()
	persona := &domain.Persona{UserID: "u1", Name: "Dana", RoleTitle: "Account Executive"}
	require.NoError(t, f.repo.CreatePersona(ctx, persona))

	c, err := f.mgr.Create(ctx, CreateInput{ProjectID: f.project.ID, PersonaID: persona.ID, Title: "With persona"})
	require.NoError(t, err)
	_, err = f.mgr.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Contains(t, f.gen.lastPrompt(), "- Title: Account Executive")

	other := NewManager("u1", f.repo, prompt.NewAssembler(), f.gen, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, other.Select(ctx, c.ID))
	assert.Len(t, other.History(), 2)
	assert.Equal(t, "Acme", other.Project().Name)
}

func TestRenameAndDelete(t *testing.T) {
	f := setup(t, &fakeGen{})
	c := f.create(t)
	ctx := context.Background()

	require.NoError(t, f.mgr.Rename(ctx, c.ID, "Renamed"))
	assert.Equal(t, "Renamed", f.mgr.Current().Title)

	list, err := f.mgr.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Title)

	require.NoError(t, f.mgr.Delete(ctx, c.ID))
	assert.Nil(t, f.mgr.Current())
	assert.Equal(t, NoConversation, f.mgr.State())
	assert.ErrorIs(t, f.mgr.Delete(ctx, c.ID), store.ErrNotFound)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "generating", Generating.String())
	assert.True(t, strings.HasPrefix(NoConversation.String(), "no"))
}
