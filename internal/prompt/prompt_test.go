package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(promptui.ErrEOF))
	assert.True(t, IsAborted(fmt.Errorf("login: %w", ErrAborted)))
	assert.False(t, IsAborted(errors.New("boom")))
	assert.False(t, IsAborted(nil))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))

	other := errors.New("boom")
	assert.Equal(t, other, wrapError(other))
}

func TestRequired(t *testing.T) {
	assert.Error(t, required(""))
	assert.Error(t, required("   "))
	assert.NoError(t, required("alice"))
}

type stubPrompter struct {
	confirmed bool
	asked     bool
}

func (s *stubPrompter) Input(string, string) (string, error) { return "", nil }
func (s *stubPrompter) Password(string) (string, error)      { return "", nil }
func (s *stubPrompter) Confirm(string, bool) (bool, error) {
	s.asked = true
	return s.confirmed, nil
}

func TestConfirmWithForce(t *testing.T) {
	p := &stubPrompter{}
	ok, err := ConfirmWithForce(p, "Delete?", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, p.asked, "--force skips the prompt")

	ok, err = ConfirmWithForce(p, "Delete?", false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, p.asked)
}
