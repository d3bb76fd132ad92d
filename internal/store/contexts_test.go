package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoContextFile() *File {
	return &File{
		CurrentContext: "devA",
		Contexts: []Context{
			{Name: "devA", Server: "https://a.example", User: "alice"},
			{Name: "devB", Server: "https://b.example", User: "bob", Token: "tok-b"},
		},
	}
}

func TestUpsertAppendsNewContext(t *testing.T) {
	f := &File{Contexts: []Context{}}

	require.NoError(t, f.UpsertContext(Context{Name: "devA", Server: "https://a.example", User: "alice"}, "devA"))
	require.NoError(t, f.UpsertContext(Context{Name: "devB", Server: "https://b.example", User: "bob"}, ""))

	assert.Equal(t, []string{"devA", "devB"}, f.ContextNames())
	assert.Equal(t, "devA", f.CurrentContext)
}

func TestUpsertMergesNonEmptyFields(t *testing.T) {
	f := twoContextFile()

	require.NoError(t, f.UpsertContext(Context{Name: "devB", Server: "https://b2.example"}, ""))

	got, err := f.Get("devB")
	require.NoError(t, err)
	assert.Equal(t, Context{Name: "devB", Server: "https://b2.example", User: "bob", Token: "tok-b"}, *got)
	assert.Len(t, f.Contexts, 2)
}

func TestUpsertNeverDuplicatesNames(t *testing.T) {
	f := &File{Contexts: []Context{}}
	names := []string{"a", "b", "a", "c", "b", "a", "a"}

	for i, n := range names {
		ctx := Context{Name: n, Server: fmt.Sprintf("https://%d.example", i)}
		require.NoError(t, f.UpsertContext(ctx, n))

		seen := map[string]int{}
		for _, c := range f.Contexts {
			seen[c.Name]++
		}
		for name, count := range seen {
			assert.Equalf(t, 1, count, "context %q stored %d times after step %d", name, count, i)
		}
	}

	assert.Equal(t, []string{"a", "b", "c"}, f.ContextNames())
	a, err := f.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "https://6.example", a.Server)
}

func TestUpsertValidation(t *testing.T) {
	f := twoContextFile()

	err := f.UpsertContext(Context{Server: "https://x.example"}, "")
	assert.ErrorIs(t, err, ErrInvalidContext)

	err = f.UpsertContext(Context{Name: "devC"}, "nope")
	assert.ErrorIs(t, err, ErrContextNotFound)
	assert.False(t, f.Has("devC"), "a rejected upsert must not append")
}

func TestSetCurrent(t *testing.T) {
	f := twoContextFile()

	require.NoError(t, f.SetCurrent("devB"))
	assert.Equal(t, "devB", f.CurrentContext)

	err := f.SetCurrent("devZ")
	assert.ErrorIs(t, err, ErrContextNotFound)
	assert.Equal(t, "devB", f.CurrentContext)
}

func TestDeleteContext(t *testing.T) {
	f := twoContextFile()

	err := f.DeleteContext("devA")
	assert.ErrorIs(t, err, ErrActiveContextDeletion)
	assert.Equal(t, []string{"devA", "devB"}, f.ContextNames())

	err = f.DeleteContext("devZ")
	assert.ErrorIs(t, err, ErrContextNotFound)

	require.NoError(t, f.DeleteContext("devB"))
	assert.Equal(t, []string{"devA"}, f.ContextNames())
	assert.Equal(t, "devA", f.CurrentContext)
}

func TestDeleteDoesNotAliasRemainingContexts(t *testing.T) {
	f := &File{
		CurrentContext: "c",
		Contexts:       []Context{{Name: "a"}, {Name: "b"}, {Name: "c"}},
	}
	snapshot := f.Contexts

	require.NoError(t, f.DeleteContext("a"))
	assert.Equal(t, []string{"b", "c"}, f.ContextNames())
	assert.Equal(t, "a", snapshot[0].Name, "the caller's view of the old slice must stay intact")
}

func TestCurrent(t *testing.T) {
	f := twoContextFile()
	ctx, err := f.Current()
	require.NoError(t, err)
	assert.Equal(t, "devA", ctx.Name)

	empty := &File{Contexts: []Context{}}
	_, err = empty.Current()
	assert.ErrorIs(t, err, ErrNoCurrentContext)

	dangling := twoContextFile()
	dangling.CurrentContext = "gone"
	_, err = dangling.Current()
	require.ErrorIs(t, err, ErrCurrentContextMissing)

	var missing *MissingContextError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "gone", missing.Name)
	assert.Equal(t, []string{"devA", "devB"}, missing.Available)
}

// The scenario below walks the create/switch/delete sequence end to end
// through the file on disk.
func TestContextLifecycleOnDisk(t *testing.T) {
	s := newInitializedStore(t)

	create := func(name, server, user string) {
		_, err := s.Update(func(f *File) error {
			return f.UpsertContext(Context{Name: name, Server: server, User: user}, name)
		})
		require.NoError(t, err)
	}
	switchTo := func(name string) error {
		_, err := s.Update(func(f *File) error { return f.SetCurrent(name) })
		return err
	}
	remove := func(name string) error {
		_, err := s.Update(func(f *File) error { return f.DeleteContext(name) })
		return err
	}

	create("devA", "https://a.example", "alice")
	create("devB", "https://b.example", "bob")
	require.NoError(t, switchTo("devA"))

	before := readFile(t, s)
	err := remove("devA")
	require.ErrorIs(t, err, ErrActiveContextDeletion)
	assert.Equal(t, before, readFile(t, s), "a refused delete must leave the file byte-for-byte unchanged")

	err = switchTo("devZ")
	require.ErrorIs(t, err, ErrContextNotFound)
	assert.Equal(t, before, readFile(t, s), "a refused switch must leave the file unchanged")

	require.NoError(t, switchTo("devB"))
	require.NoError(t, remove("devA"))

	f, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "devB", f.CurrentContext)
	assert.Equal(t, []string{"devB"}, f.ContextNames())

	cur, err := f.Current()
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", cur.Server)
}
