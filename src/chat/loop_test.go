package chat

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
	"github.com/SohailShaikh7860/ai-agent-cli/src/auth"
	"github.com/SohailShaikh7860/ai-agent-cli/src/gateway"
	"github.com/SohailShaikh7860/ai-agent-cli/src/generator"
	"github.com/SohailShaikh7860/ai-agent-cli/src/storage"
	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// scriptedPrompter replays queued answers for each prompt kind.
type scriptedPrompter struct {
	inputs   []string
	selects  []int
	multis   [][]int
	confirms []bool
}

func (p *scriptedPrompter) Input(label string) (string, error) {
	if len(p.inputs) == 0 {
		return "", ErrInterrupted
	}
	next := p.inputs[0]
	p.inputs = p.inputs[1:]
	return next, nil
}

func (p *scriptedPrompter) Select(label string, options []string) (int, error) {
	if len(p.selects) == 0 {
		return 0, fmt.Errorf("unexpected select: %s", label)
	}
	next := p.selects[0]
	p.selects = p.selects[1:]
	return next, nil
}

func (p *scriptedPrompter) MultiSelect(label string, options []string) ([]int, error) {
	if len(p.multis) == 0 {
		return nil, fmt.Errorf("unexpected multiselect: %s", label)
	}
	next := p.multis[0]
	p.multis = p.multis[1:]
	return next, nil
}

func (p *scriptedPrompter) Confirm(label string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirm: %s", label)
	}
	next := p.confirms[0]
	p.confirms = p.confirms[1:]
	return next, nil
}

// scriptedModel returns one canned stream per model call; a nil entry
// produces a transport error.
type scriptedModel struct {
	replies []string
	fail    []bool
	calls   int
}

func (m *scriptedModel) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (m *scriptedModel) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	idx := m.calls
	m.calls++
	if idx < len(m.fail) && m.fail[idx] {
		return nil, fmt.Errorf("connection refused")
	}
	reply := "ok"
	if idx < len(m.replies) {
		reply = m.replies[idx]
	}
	return &replyStream{reply: reply}, nil
}

type replyStream struct {
	reply string
	pos   int
}

func (s *replyStream) Read() (*aisdk.StreamChunk, error) {
	if s.pos > 0 {
		return nil, io.EOF
	}
	s.pos++
	return &aisdk.StreamChunk{
		Choices: []aisdk.Choice{{
			Delta:        &aisdk.Message{Content: s.reply},
			FinishReason: "stop",
		}},
	}, nil
}

func (s *replyStream) Close() error { return nil }

type loopFixture struct {
	loop  *Loop
	db    *storage.DB
	user  *storage.User
	model *scriptedModel
	fs    afero.Fs
	out   *bytes.Buffer
}

func newLoopFixture(t *testing.T, prompter *scriptedPrompter, authenticated bool) *loopFixture {
	t.Helper()

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	user := &storage.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, storage.CreateUser(ctx, db.DB(), user))

	credentials := auth.NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
	if authenticated {
		expiry := time.Now().Add(time.Hour)
		session := &storage.Session{UserID: user.ID, Token: "tok", ExpiresAt: &expiry}
		require.NoError(t, storage.CreateSession(ctx, db.DB(), session))
		require.NoError(t, credentials.Save(&auth.Credential{AccessToken: "tok", ExpiresAt: &expiry}))
	}

	model := &scriptedModel{}
	catalog, err := toolkit.NewCatalog()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	fs := afero.NewMemMapFs()
	gw := gateway.New(model, "test-model", nil)
	loop := &Loop{
		DB:          db.DB(),
		Credentials: credentials,
		Resolver:    auth.NewResolver(db.DB(), nil),
		Gateway:     gw,
		Generator:   generator.New(gw, fs, nil),
		Selection:   toolkit.NewSelection(catalog),
		Prompter:    prompter,
		Renderer:    NopRenderer(),
		Output:      out,
		WorkingDir:  "/work",
	}

	return &loopFixture{loop: loop, db: db, user: user, model: model, fs: fs, out: out}
}

func (f *loopFixture) conversations(t *testing.T) []storage.Conversation {
	t.Helper()
	list, err := storage.ListConversationsByUser(context.Background(), f.db.DB(), f.user.ID, 100)
	require.NoError(t, err)
	return list
}

func (f *loopFixture) messages(t *testing.T, conversationID string) []storage.Message {
	t.Helper()
	messages, err := storage.GetMessagesByConversationID(context.Background(), f.db.DB(), conversationID)
	require.NoError(t, err)
	return messages
}

func TestRunRequiresAuthentication(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"hello"}}
	fixture := newLoopFixture(t, prompter, false)

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.Empty(t, fixture.conversations(t), "no conversation side effects before auth")
}

func TestRunExitBeforeAnyMessage(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"exit"}}
	fixture := newLoopFixture(t, prompter, true)

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)

	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1, "the conversation exists even with no turns")
	assert.Equal(t, storage.DefaultConversationTitle, conversations[0].Title)
	assert.Empty(t, fixture.messages(t, conversations[0].ID))
}

func TestRunExitIsCaseInsensitive(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"  EXIT  "}}
	fixture := newLoopFixture(t, prompter, true)

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)
	assert.Empty(t, fixture.messages(t, fixture.conversations(t)[0].ID))
}

func TestRunSingleTurn(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"what is the capital of France?", "exit"}}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{"Paris."}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)

	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1)
	assert.Equal(t, "what is the capital of France?", conversations[0].Title)

	messages := fixture.messages(t, conversations[0].ID)
	require.Len(t, messages, 2)
	assert.Equal(t, storage.RoleUser, messages[0].Role)
	assert.Equal(t, "what is the capital of France?", messages[0].Content)
	assert.Equal(t, storage.RoleAssistant, messages[1].Role)
	assert.Equal(t, "Paris.", messages[1].Content)

	assert.Contains(t, fixture.out.String(), "Paris.")
}

func TestRunTitleTruncatedAndSetOnce(t *testing.T) {
	long := strings.Repeat("x", 80)
	prompter := &scriptedPrompter{inputs: []string{long, "second message", "exit"}}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{"one", "two"}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)

	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1)
	// The title comes from the first message only, truncated to 50 runes.
	assert.Equal(t, strings.Repeat("x", 50)+"...", conversations[0].Title)
	assert.Len(t, fixture.messages(t, conversations[0].ID), 4)
}

func TestRunEmptyInputIgnored(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"", "   ", "hi", "exit"}}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{"hello"}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)

	messages := fixture.messages(t, fixture.conversations(t)[0].ID)
	require.Len(t, messages, 2, "blank lines never reach the model or the store")
	assert.Equal(t, "hi", messages[0].Content)
}

func TestRunFailedTurnDeclinedRetry(t *testing.T) {
	prompter := &scriptedPrompter{
		inputs:   []string{"hello"},
		confirms: []bool{false},
	}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.fail = []bool{true}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.Error(t, err)

	messages := fixture.messages(t, fixture.conversations(t)[0].ID)
	require.Len(t, messages, 2)
	assert.Equal(t, storage.RoleUser, messages[0].Role)
	assert.Equal(t, storage.RoleAssistant, messages[1].Role)
	assert.True(t, strings.HasPrefix(messages[1].Content, errorMarkerPrefix), "failure is recorded in the transcript")
}

func TestRunFailedTurnRetriedSucceeds(t *testing.T) {
	prompter := &scriptedPrompter{
		inputs:   []string{"hello", "exit"},
		confirms: []bool{true},
	}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.fail = []bool{true, false}
	fixture.model.replies = []string{"", "recovered"}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)

	messages := fixture.messages(t, fixture.conversations(t)[0].ID)
	// user, error marker, successful assistant reply
	require.Len(t, messages, 3)
	assert.True(t, strings.HasPrefix(messages[1].Content, errorMarkerPrefix))
	assert.Equal(t, "recovered", messages[2].Content)

	// The title is set when the user message persists, not re-derived on
	// the retry.
	assert.Equal(t, "hello", fixture.conversations(t)[0].Title)
}

func TestRunInvalidModeRejected(t *testing.T) {
	prompter := &scriptedPrompter{}
	fixture := newLoopFixture(t, prompter, true)

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: "sideways"})
	require.Error(t, err)
	assert.Empty(t, fixture.conversations(t))
}

func TestRunModePrompted(t *testing.T) {
	prompter := &scriptedPrompter{
		selects: []int{0}, // chat
		inputs:  []string{"exit"},
	}
	fixture := newLoopFixture(t, prompter, true)

	err := fixture.loop.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, storage.ModeChat, fixture.conversations(t)[0].Mode)
}

func TestRunToolModeEmptySelectionProceeds(t *testing.T) {
	prompter := &scriptedPrompter{
		multis: [][]int{nil}, // no tools picked
		inputs: []string{"hi", "exit"},
	}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{"no tools needed"}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeTool})
	require.NoError(t, err)

	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1)
	assert.Equal(t, storage.ModeTool, conversations[0].Mode)

	messages := fixture.messages(t, conversations[0].ID)
	require.Len(t, messages, 2)
	assert.Equal(t, "no tools needed", messages[1].Content)
}

func TestRunResumesConversation(t *testing.T) {
	first := &scriptedPrompter{inputs: []string{"remember this", "exit"}}
	fixture := newLoopFixture(t, first, true)
	fixture.model.replies = []string{"noted"}

	require.NoError(t, fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat}))
	convID := fixture.conversations(t)[0].ID

	// Second run resumes the same conversation and appends to it.
	fixture.loop.Prompter = &scriptedPrompter{inputs: []string{"and this", "exit"}}
	fixture.model.replies = append(fixture.model.replies, "also noted")

	require.NoError(t, fixture.loop.Run(context.Background(), RunOptions{
		ConversationID: convID,
		Mode:           storage.ModeChat,
	}))

	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1, "no second conversation was created")
	messages := fixture.messages(t, convID)
	require.Len(t, messages, 4)
	assert.Equal(t, "and this", messages[2].Content)

	// The title still comes from the very first message.
	assert.Equal(t, "remember this", conversations[0].Title)
}

func TestRunSelectionResetOnExit(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"exit"}}
	fixture := newLoopFixture(t, prompter, true)
	require.NoError(t, fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat}))
	assert.Empty(t, fixture.loop.Selection.EnabledNames())
}

func TestRunInterruptedInput(t *testing.T) {
	// An exhausted prompter simulates ctrl-d.
	prompter := &scriptedPrompter{}
	fixture := newLoopFixture(t, prompter, true)

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	assert.ErrorIs(t, err, ErrInterrupted)
}

const todoManifest = `{
	"directory": "todo-app",
	"files": [
		{"path": "main.py", "content": "print('todo')\n"},
		{"path": "static/index.html", "content": "<html></html>\n"}
	],
	"setup_commands": ["python main.py"]
}`

func TestRunAgentTurnPersistsSummary(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"build me a todo app", "exit"}}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{todoManifest}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeAgent})
	require.NoError(t, err)

	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1)
	assert.Equal(t, storage.ModeAgent, conversations[0].Mode)
	assert.Equal(t, "build me a todo app", conversations[0].Title)

	// The assistant message is the structured summary, not raw model output.
	messages := fixture.messages(t, conversations[0].ID)
	require.Len(t, messages, 2)
	assert.Equal(t, storage.RoleAssistant, messages[1].Role)
	assert.Contains(t, messages[1].Content, "Generated **2 files**")
	assert.Contains(t, messages[1].Content, "main.py")
	assert.Contains(t, messages[1].Content, "static/index.html")
	assert.Contains(t, messages[1].Content, "python main.py")

	for _, path := range []string{"/work/todo-app/main.py", "/work/todo-app/static/index.html"} {
		exists, err := afero.Exists(fixture.fs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}
}

func TestRunAgentFailedTurnDeclinedRetry(t *testing.T) {
	prompter := &scriptedPrompter{
		inputs:   []string{"build something"},
		confirms: []bool{false},
	}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.fail = []bool{true}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeAgent})
	require.Error(t, err)

	// Generation failures take the same marker-then-confirm path as chat.
	messages := fixture.messages(t, fixture.conversations(t)[0].ID)
	require.Len(t, messages, 2)
	assert.True(t, strings.HasPrefix(messages[1].Content, errorMarkerPrefix))
}

func TestRunAgentFailedTurnRetriedSucceeds(t *testing.T) {
	prompter := &scriptedPrompter{
		inputs:   []string{"build me a todo app", "exit"},
		confirms: []bool{true},
	}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.fail = []bool{true, false}
	fixture.model.replies = []string{"", todoManifest}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeAgent})
	require.NoError(t, err)

	messages := fixture.messages(t, fixture.conversations(t)[0].ID)
	// user, error marker, summary
	require.Len(t, messages, 3)
	assert.True(t, strings.HasPrefix(messages[1].Content, errorMarkerPrefix))
	assert.Contains(t, messages[2].Content, "Generated **2 files**")
}

// recordingRenderer captures everything handed to the formatted pass.
type recordingRenderer struct {
	rendered []string
}

func (r *recordingRenderer) Render(markdown string) error {
	r.rendered = append(r.rendered, markdown)
	return nil
}

func TestRunAssistantReplyRendered(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"what is the capital of France?", "exit"}}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{"Paris."}

	renderer := &recordingRenderer{}
	fixture.loop.Renderer = renderer

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err)

	// The complete reply gets one formatted pass after the raw stream.
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, "Paris.", renderer.rendered[0])
	assert.Contains(t, fixture.out.String(), "Paris.", "the raw stream still reaches the transcript")
}

// countFailDB fails message counts and delegates everything else.
type countFailDB struct {
	storage.ExecQuerier
}

func (d countFailDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if strings.Contains(query, "COUNT(") {
		return nil, fmt.Errorf("count unavailable")
	}
	return d.ExecQuerier.QueryContext(ctx, query, args...)
}

func TestRunTitleSkippedWhenCountFails(t *testing.T) {
	prompter := &scriptedPrompter{inputs: []string{"hello", "exit"}}
	fixture := newLoopFixture(t, prompter, true)
	fixture.model.replies = []string{"hi"}

	logs := &bytes.Buffer{}
	fixture.loop.Logger = slog.New(slog.NewTextHandler(logs, nil))
	fixture.loop.DB = countFailDB{fixture.loop.DB}

	err := fixture.loop.Run(context.Background(), RunOptions{Mode: storage.ModeChat})
	require.NoError(t, err, "a count failure never fails the turn")

	// The title stays at the placeholder and the failure is logged.
	conversations := fixture.conversations(t)
	require.Len(t, conversations, 1)
	assert.Equal(t, storage.DefaultConversationTitle, conversations[0].Title)
	assert.Len(t, fixture.messages(t, conversations[0].ID), 2)
	assert.Contains(t, logs.String(), "failed to count messages")
}
