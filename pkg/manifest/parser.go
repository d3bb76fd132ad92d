// Package manifest reads KubeROS manifest files (deployments, fleets,
// cluster inventories) and checks them before they are uploaded.
//
// The server parses manifests itself; the CLI only needs enough structure
// to reject obviously broken files early and to name the resource in its
// output. The raw bytes are always uploaded unchanged.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
)

// Sentinel errors returned by the parser.
var (
	ErrEmpty        = errors.New("manifest contains no documents")
	ErrInvalid      = errors.New("invalid manifest")
	ErrKindMismatch = errors.New("unexpected manifest kind")
)

// Document is the part of a manifest document the CLI looks at.
type Document struct {
	v1.TypeMeta `yaml:",inline"`
	Metadata    v1.ObjectMeta `yaml:"metadata"`
}

// Manifest is a parsed manifest file.
type Manifest struct {
	Path      string
	Raw       []byte
	Documents []Document
}

// Name returns the name of the first document.
func (m *Manifest) Name() string {
	if len(m.Documents) == 0 {
		return ""
	}
	return m.Documents[0].Metadata.Name
}

// ExpectKind fails when a document declares a kind outside kinds. Documents
// without a kind are accepted.
func (m *Manifest) ExpectKind(kinds ...string) error {
	for i, d := range m.Documents {
		if d.Kind == "" {
			continue
		}
		ok := false
		for _, k := range kinds {
			if d.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: document %d (%s) is a %q, want one of %v", ErrKindMismatch, i+1, d.Metadata.Name, d.Kind, kinds)
		}
	}
	return nil
}

// ParseFile reads a YAML file at the given path and parses it.
// Multi-document YAML (separated by ---) is supported.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %s: %w", path, err)
	}
	docs, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Manifest{Path: path, Raw: data, Documents: docs}, nil
}

// ParseBytes parses raw YAML bytes into manifest documents.
func ParseBytes(data []byte) ([]Document, error) {
	var docs []Document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for i := 1; ; i++ {
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: decoding yaml document %d: %v", ErrInvalid, i, err)
		}

		// Skip empty documents.
		if node.Kind == 0 || len(node.Content) == 0 || (len(node.Content) == 1 && node.Content[0].ShortTag() == "!!null") {
			continue
		}

		var doc Document
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalid, i, err)
		}
		if doc.Metadata.Name == "" {
			return nil, fmt.Errorf("%w: document %d: metadata.name must not be empty", ErrInvalid, i)
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, ErrEmpty
	}
	return docs, nil
}
