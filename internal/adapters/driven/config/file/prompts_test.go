package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corra/internal/core/ports/driven"
)

func mustPromptStore(t *testing.T, dir string) *PromptStore {
	t.Helper()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store
}

func writeAnswerPrompt(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte(content), 0600)
	require.NoError(t, err)
}

func TestNewPromptStore_CustomDir(t *testing.T) {
	dir := t.TempDir()
	store := mustPromptStore(t, dir)

	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store := mustPromptStore(t, "")

	assert.Equal(t, filepath.Join(home, ".corra", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store := mustPromptStore(t, dir)

	// First Load triggers lazy init
	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	for _, f := range []string{"answer_system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected %s to exist", f)
	}
}

func TestPromptStore_Load_DefaultContent(t *testing.T) {
	store := mustPromptStore(t, t.TempDir())

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Contains(t, prompt, "helpful analyst")
	assert.Contains(t, prompt, "only the provided context")
}

func TestPromptStore_Load_CustomContentWins(t *testing.T) {
	dir := t.TempDir()
	writeAnswerPrompt(t, dir, "Answer tersely and cite titles.")

	store := mustPromptStore(t, dir)
	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, "Answer tersely and cite titles.", prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store := mustPromptStore(t, dir)

	// Remove the file the lazy init just created
	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "answer_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Contains(t, prompt, "helpful analyst")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store := mustPromptStore(t, t.TempDir())

	_, err := store.Load("rank_rerank")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank_rerank")
}

func TestPromptStore_Load_Caches(t *testing.T) {
	dir := t.TempDir()
	store := mustPromptStore(t, dir)

	first, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	// Disk edits are invisible until Reload
	writeAnswerPrompt(t, dir, "edited on disk")

	second, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store := mustPromptStore(t, dir)

	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	writeAnswerPrompt(t, dir, "edited on disk")
	store.Reload()

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, "edited on disk", prompt)
}

func TestPromptStore_Load_Concurrent(t *testing.T) {
	store := mustPromptStore(t, t.TempDir())

	const workers = 50
	results := make([]string, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAnswer)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = prompt
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestPromptStore_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeAnswerPrompt(t, dir, "pre-existing custom prompt")

	store := mustPromptStore(t, dir)
	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	// Lazy init must not overwrite user files
	data, err := os.ReadFile(filepath.Join(dir, "answer_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "pre-existing custom prompt", string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeAnswerPrompt(t, dir, "\n\n  Cite each claim.  \n\n")

	store := mustPromptStore(t, dir)
	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, "Cite each claim.", prompt)
}
