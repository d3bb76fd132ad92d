package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a Store rooted in a fresh temp dir. The config file
// itself is not created.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), ".kuberos", "config"))
}

// newInitializedStore returns a Store whose file holds an empty document.
func newInitializedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.Init())
	return s
}

func readFile(t *testing.T, s *Store) []byte {
	t.Helper()
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	return data
}

func TestLoadMissingFileCreatesDirectoryOnly(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load()
	require.ErrorIs(t, err, ErrConfigNotFound)

	info, err := os.Stat(filepath.Dir(s.Path()))
	require.NoError(t, err, "parent directory should have been created")
	assert.True(t, info.IsDir())

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "config file must not be created by Load")
}

func TestLoadMissingFileTwiceStillFails(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load()
	require.ErrorIs(t, err, ErrConfigNotFound)
	_, err = s.Load()
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestUpdateOnMissingFileDoesNotCreateIt(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Update(func(f *File) error {
		return f.UpsertContext(Context{Name: "devA", Server: "https://a.example", User: "alice"}, "devA")
	})
	require.ErrorIs(t, err, ErrConfigNotFound)

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "current-context: [unterminated\n"},
		{name: "wrong shape", content: "contexts: just-a-string\n"},
		{name: "nameless context", content: "contexts:\n  - server: https://a.example\n"},
		{name: "duplicate names", content: "current-context: a\ncontexts:\n  - name: a\n  - name: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), DirPermissions))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), FilePermissions))

			_, err := s.Load()
			assert.ErrorIs(t, err, ErrConfigCorrupt)
		})
	}
}

func TestLoadEmptyFileIsEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), DirPermissions))
	require.NoError(t, os.WriteFile(s.Path(), []byte("\n"), FilePermissions))

	f, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, f.CurrentContext)
	assert.Empty(t, f.Contexts)
}

func TestLoadToleratesDanglingCurrentContext(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), DirPermissions))
	content := "current-context: gone\ncontexts:\n  - name: devA\n    server: https://a.example\n    user: alice\n    token: \"\"\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), FilePermissions))

	f, err := s.Load()
	require.NoError(t, err)

	_, err = f.Current()
	assert.ErrorIs(t, err, ErrCurrentContextMissing)
}

func TestInit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	f, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, f.CurrentContext)
	assert.Empty(t, f.Contexts)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePermissions), info.Mode().Perm())

	// A second Init must not clobber the existing file.
	assert.ErrorIs(t, s.Init(), ErrConfigExists)
}

func TestFirstCreateOnEmptyConfig(t *testing.T) {
	s := newInitializedStore(t)

	_, err := s.Update(func(f *File) error {
		return f.UpsertContext(Context{Name: "devA", Server: "https://a.example", User: "alice"}, "devA")
	})
	require.NoError(t, err)

	f, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "devA", f.CurrentContext)
	require.Len(t, f.Contexts, 1)
	assert.Equal(t, Context{Name: "devA", Server: "https://a.example", User: "alice"}, f.Contexts[0])
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newInitializedStore(t)

	_, err := s.Update(func(f *File) error {
		return f.UpsertContext(Context{Name: "devA", Server: "https://a.example"}, "devA")
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(s.Path()), entries[0].Name())
}

func TestSaveIntoUnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	// The parent "directory" is a regular file, so nothing can be written.
	s := New(filepath.Join(blocker, "config"))
	err := s.Save(&File{Contexts: []Context{}})
	assert.ErrorIs(t, err, ErrConfigWrite)
}

func TestSaveRejectsDuplicateNames(t *testing.T) {
	s := newInitializedStore(t)
	before := readFile(t, s)

	err := s.Save(&File{Contexts: []Context{{Name: "a"}, {Name: "a"}}})
	assert.ErrorIs(t, err, ErrConfigWrite)
	assert.Equal(t, before, readFile(t, s))
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s := newInitializedStore(t)
	_, err := s.Update(func(f *File) error {
		return f.UpsertContext(Context{Name: "devA", Server: "https://a.example"}, "devA")
	})
	require.NoError(t, err)
	before := readFile(t, s)

	_, err = s.Update(func(f *File) error {
		f.Contexts = nil
		return f.SetCurrent("nope")
	})
	require.ErrorIs(t, err, ErrContextNotFound)
	assert.Equal(t, before, readFile(t, s))
}

func TestRoundTripIsSemanticallyIdentical(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), DirPermissions))
	// Keys deliberately out of the order Save writes them in.
	content := `contexts:
- token: abc123
  user: bob
  server: https://b.example
  name: devB
- name: devA
  server: https://a.example
  user: alice
  token: ""
current-context: devB
`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), FilePermissions))

	original, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(original))

	reloaded, err := s.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(original, reloaded); diff != "" {
		t.Fatalf("round trip changed the document (-want +got):\n%s", diff)
	}
}

func TestSavedLayout(t *testing.T) {
	f := &File{
		CurrentContext: "devA",
		Contexts: []Context{
			{Name: "devA", Server: "https://a.example", User: "alice", Token: ""},
		},
	}
	data, err := Marshal(f)
	require.NoError(t, err)

	want := `current-context: devA
contexts:
  - name: devA
    server: https://a.example
    user: alice
    token: ""
`
	assert.Equal(t, want, string(data))
}
