package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Flags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	v := flags.Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)

	repo := flags.Lookup("repo")
	require.NotNil(t, repo)
	assert.Equal(t, "r", repo.Shorthand)
	assert.Equal(t, ".", repo.DefValue)

	assert.NotNil(t, flags.Lookup("config"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "ask", "search", "chat", "config", "mcp", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestOpenRepository_NotConfigured(t *testing.T) {
	SetFactory(nil)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	_, _, err := execute("index")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenRepository_PassesFlags(t *testing.T) {
	env := setupTestServices(t)

	_, _, err := execute("index", "--repo", "github:acme/widgets@main", "--config", "/tmp/c.toml")
	require.NoError(t, err)

	requireOpened(t, env)
	assert.Equal(t, Options{Repo: "github:acme/widgets@main", ConfigPath: "/tmp/c.toml"}, env.opened[0])
	assert.Equal(t, 1, env.closed)
}

func TestOpenRepository_ProgressOnStderr(t *testing.T) {
	setupTestServices(t)

	stdout, stderr, err := execute("index")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Indexing demo-repo...")
	assert.Contains(t, stderr, "Indexed 3 files (code: 2, text: 1) into 12 chunks")
	assert.Contains(t, stderr, "Skipped 2 files")
	assert.NotContains(t, stdout, "Indexing")
}

func TestOpenRepository_IngestFailure(t *testing.T) {
	env := setupTestServices(t)
	env.ingester.err = errBoom

	_, _, err := execute("ask", "what")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "indexing failed")
	assert.Equal(t, 1, env.closed)
	assert.Empty(t, env.answerer.questions)
}
