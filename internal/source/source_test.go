package source

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootStack struct{ roots []string }

func (s *rootStack) PushSource(root string) { s.roots = append(s.roots, root) }

func TestParseRef(t *testing.T) {
	tests := []struct {
		in       string
		remote   bool
		url      string
		revision string
		path     string
	}{
		{"./templates", false, "", "", "./templates"},
		{"/abs/templates", false, "", "", "/abs/templates"},
		{"https://github.com/org/repo.git", true, "https://github.com/org/repo.git", "", ""},
		{"https://github.com/org/repo.git#v2", true, "https://github.com/org/repo.git", "v2", ""},
		{"git@github.com:org/repo.git#main", true, "git@github.com:org/repo.git", "main", ""},
		{"file:///tmp/repo#feature/x", true, "file:///tmp/repo", "feature/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref := ParseRef(tt.in)
			assert.Equal(t, tt.remote, ref.IsRemote())
			assert.Equal(t, tt.url, ref.URL)
			assert.Equal(t, tt.revision, ref.Revision)
			assert.Equal(t, tt.path, ref.Path)
			assert.Equal(t, tt.in, ref.String())
		})
	}
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	stack := &rootStack{}

	r := &Resolver{Scope: NewScope()}
	root, err := r.Resolve(Local(dir), stack)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, root)
	assert.Equal(t, []string{abs}, stack.roots)
}

func TestResolveLocalMissing(t *testing.T) {
	r := &Resolver{Scope: NewScope()}
	_, err := r.Resolve(Local(filepath.Join(t.TempDir(), "missing")), &rootStack{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "open", fe.Step)
}

func TestResolveLocalNotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: x\n"), 0644))

	r := &Resolver{Scope: NewScope()}
	_, err := r.Resolve(Local(file), &rootStack{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
}

func TestResolveZeroRef(t *testing.T) {
	r := &Resolver{Scope: NewScope()}
	_, err := r.Resolve(Ref{}, &rootStack{})
	require.Error(t, err)
}

func TestResolveRemoteAtRevision(t *testing.T) {
	repo := gitRepo(t)
	scope := NewScope()
	stack := &rootStack{}

	r := &Resolver{Scope: scope}
	root, err := r.Resolve(Remote("file://"+repo, "v2"), stack)
	require.NoError(t, err)
	require.Equal(t, []string{root}, stack.roots)

	data, err := os.ReadFile(filepath.Join(root, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(data))

	require.NoError(t, scope.Close())
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err), "checkout should be removed when the scope closes")
}

func TestResolveRemoteDefaultBranch(t *testing.T) {
	repo := gitRepo(t)
	scope := NewScope()
	t.Cleanup(func() { _ = scope.Close() })

	r := &Resolver{Scope: scope}
	root, err := r.Resolve(Remote("file://"+repo, ""), &rootStack{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "v3\n", string(data))
}

func TestResolveRemoteBadRevisionCleansUp(t *testing.T) {
	repo := gitRepo(t)
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	scope := NewScope()
	stack := &rootStack{}

	r := &Resolver{Scope: scope}
	_, err := r.Resolve(Remote("file://"+repo, "no-such-revision"), stack)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "checkout", fe.Step)
	assert.Empty(t, stack.roots)

	require.NoError(t, scope.Close())
	assert.Empty(t, tempCheckouts(t, tmp), "failed checkout should not leave a directory behind")
}

func TestResolveRemoteCloneFailure(t *testing.T) {
	requireGit(t)
	scope := NewScope()
	t.Cleanup(func() { _ = scope.Close() })

	r := &Resolver{Scope: scope}
	_, err := r.Resolve(Remote("file://"+filepath.Join(t.TempDir(), "nope"), ""), &rootStack{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "clone", fe.Step)
	assert.NotEmpty(t, fe.Output)
}

func TestResolveRemoteMissingGit(t *testing.T) {
	r := &Resolver{Git: "definitely-not-git-binary", Scope: NewScope()}
	_, err := r.Resolve(Remote("https://example.com/repo.git", ""), &rootStack{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "not found in PATH")
}

func TestScopeRunsCleanupsOnceInReverse(t *testing.T) {
	scope := NewScope()
	var order []string
	require.NoError(t, scope.Defer("a", func() error { order = append(order, "a"); return nil }))
	require.NoError(t, scope.Defer("b", func() error { order = append(order, "b"); return errors.New("boom") }))

	err := scope.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleaning up b")
	assert.Equal(t, []string{"b", "a"}, order)

	require.NoError(t, scope.Close())
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestScopeDeferAfterClose(t *testing.T) {
	scope := NewScope()
	require.NoError(t, scope.Close())

	ran := false
	require.NoError(t, scope.Defer("late", func() error { ran = true; return nil }))
	assert.True(t, ran)
}

func TestScopeTempDir(t *testing.T) {
	scope := NewScope()
	dir, err := scope.TempDir("tailor-test-")
	require.NoError(t, err)
	require.DirExists(t, dir)

	require.NoError(t, scope.Close())
	assert.NoDirExists(t, dir)
}

func TestScopeTrapSignalsRelease(t *testing.T) {
	scope := NewScope()
	release := scope.TrapSignals(func(int) { t.Fatal("exit should not be called") })
	release()
	release()
	require.NoError(t, scope.Close())
}

// ─── Test Helpers ──────────────────────────────────────────────────

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// gitRepo creates a repository with VERSION at v1, v2 (tagged "v2"), and v3
// on the default branch.
func gitRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	t.Setenv("GIT_AUTHOR_NAME", "tailor")
	t.Setenv("GIT_AUTHOR_EMAIL", "tailor@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "tailor")
	t.Setenv("GIT_COMMITTER_EMAIL", "tailor@example.com")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	dir := t.TempDir()
	runGit(t, dir, "init", "--quiet")
	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte(v+"\n"), 0644))
		runGit(t, dir, "add", "VERSION")
		runGit(t, dir, "commit", "--quiet", "-m", v)
		runGit(t, dir, "tag", v)
	}
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func tempCheckouts(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "tailor-source-*"))
	require.NoError(t, err)
	return matches
}
