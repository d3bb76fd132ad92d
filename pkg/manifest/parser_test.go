package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

const deploymentManifest = `apiVersion: v1alpha
kind: RosModule
metadata:
  name: hello-world
  labels:
    team: nav
spec:
  targetFleet: bw0-fleet
  rosModules:
    - name: talker
      image: ros:humble
`

func TestParseDeployment(t *testing.T) {
	docs, err := ParseBytes([]byte(deploymentManifest))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "v1alpha", docs[0].APIVersion)
	assert.Equal(t, v1.KindDeployment, docs[0].Kind)
	assert.Equal(t, "hello-world", docs[0].Metadata.Name)
	assert.Equal(t, "nav", docs[0].Metadata.Labels["team"])
}

func TestParseMultiDocument(t *testing.T) {
	data := []byte(`kind: Fleet
metadata:
  name: fleet-a
---
---
kind: Fleet
metadata:
  name: fleet-b
`)
	docs, err := ParseBytes(data)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "fleet-a", docs[0].Metadata.Name)
	assert.Equal(t, "fleet-b", docs[1].Metadata.Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "empty", content: "", wantErr: ErrEmpty},
		{name: "only separators", content: "---\n---\n", wantErr: ErrEmpty},
		{name: "missing name", content: "kind: Fleet\nmetadata:\n  labels:\n    a: b\n", wantErr: ErrInvalid},
		{name: "no metadata", content: "kind: Fleet\nspec: {}\n", wantErr: ErrInvalid},
		{name: "scalar document", content: "just text\n", wantErr: ErrInvalid},
		{name: "broken yaml", content: "metadata: [unterminated\n", wantErr: ErrInvalid},
		{name: "second document invalid", content: "metadata:\n  name: ok\n---\nkind: Fleet\n", wantErr: ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.kuberos.yml")
	require.NoError(t, os.WriteFile(path, []byte(deploymentManifest), 0600))

	m, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Equal(t, "hello-world", m.Name())
	assert.Equal(t, deploymentManifest, string(m.Raw), "raw bytes must be kept unchanged for upload")
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpectKind(t *testing.T) {
	m := &Manifest{Documents: []Document{
		{TypeMeta: v1.TypeMeta{Kind: v1.KindFleet}, Metadata: v1.ObjectMeta{Name: "a"}},
		{Metadata: v1.ObjectMeta{Name: "untyped"}},
	}}
	assert.NoError(t, m.ExpectKind(v1.KindFleet))
	assert.ErrorIs(t, m.ExpectKind(v1.KindDeployment), ErrKindMismatch)
}

func TestNameOfEmptyManifest(t *testing.T) {
	assert.Empty(t, (&Manifest{}).Name())
}
