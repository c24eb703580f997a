package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
)

func TestChatCmd_Flags(t *testing.T) {
	assert.NotNil(t, chatCmd.Flags().Lookup("watch"))
	assert.NotNil(t, chatCmd.Flags().Lookup("plain"))
}

func TestChatLoop_AnswersUntilExit(t *testing.T) {
	env := setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("what is main?\n\n   \nand login?\nexit()\nnever asked\n"))

	stdout, _, err := execute("chat", "--plain")
	require.NoError(t, err)

	assert.Equal(t, []string{"what is main?", "and login?"}, env.answerer.questions)
	require.Len(t, env.answerer.convs, 2)
	assert.NotNil(t, env.answerer.convs[0])
	assert.Same(t, env.answerer.convs[0], env.answerer.convs[1], "follow-ups share one conversation")

	assert.Contains(t, stdout, "Type exit() to quit.")
	assert.Equal(t, 2, strings.Count(stdout, "Login checks the password."))
	assert.Contains(t, stdout, "  - auth/login.go [0:120]")
}

func TestChatLoop_ConversationResetOnExit(t *testing.T) {
	env := setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("one\ntwo\nexit()\n"))

	_, _, err := execute("chat")
	require.NoError(t, err)

	require.NotEmpty(t, env.answerer.convs)
	assert.Equal(t, 0, env.answerer.convs[0].Len())
}

func TestChatLoop_EndOfInput(t *testing.T) {
	env := setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("only question"))

	_, _, err := execute("chat", "--plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"only question"}, env.answerer.questions)
}

func TestChatLoop_ErrorsKeepSessionAlive(t *testing.T) {
	env := setupTestServices(t)
	env.answerer.errs = map[string]error{
		"slow": domain.NewAnsweringModelError("", context.DeadlineExceeded),
	}
	rootCmd.SetIn(strings.NewReader("slow\nfast\nquit\n"))

	stdout, stderr, err := execute("chat", "--plain")
	require.NoError(t, err)

	assert.Equal(t, []string{"slow", "fast"}, env.answerer.questions)
	assert.Contains(t, stderr, "(you can ask again)")
	assert.Contains(t, stdout, "Login checks the password.")
}

func TestChatCmd_NoAnsweringModel(t *testing.T) {
	env := setupTestServices(t)
	env.noAnswer = true
	rootCmd.SetIn(strings.NewReader("hi\n"))

	_, _, err := execute("chat", "--plain")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestChatCmd_WatchNeedsLocalSource(t *testing.T) {
	setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("exit()\n"))

	_, _, err := execute("chat", "--plain", "--watch")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "--watch needs a local directory")
}

func TestChatLoop_WatchReportsRebuilds(t *testing.T) {
	env := setupTestServices(t)
	stopped := false
	env.watch = func(_ context.Context, hooks WatchHooks) (func(), error) {
		hooks.OnDone(testReport(), nil)
		hooks.OnDone(nil, errBoom)
		return func() { stopped = true }, nil
	}
	rootCmd.SetIn(strings.NewReader("exit()\n"))

	_, stderr, err := execute("chat", "--plain", "--watch")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Watching /tmp/demo-repo for changes")
	assert.Contains(t, stderr, "[index rebuilt: 3 files, 12 chunks]")
	assert.Contains(t, stderr, "[rebuild failed, keeping the previous index: boom]")
	assert.True(t, stopped)
}
