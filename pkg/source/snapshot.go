package source

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
)

// Snapshot reads a saved response of the variables endpoint from disk.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// The file is re-read on every Load so that edits are picked up.
type Snapshot struct {
	Path string
}

// NewSnapshot returns a Snapshot source for path.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{Path: path}
}

func (s *Snapshot) Load(ctx context.Context) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}

	resp, err := DecodeSnapshot(raw, isYAML(s.Path))
	if err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", s.Path)
	}
	return FromMeta(resp.Meta), nil
}

func (s *Snapshot) Collections(ctx context.Context) ([]figma.VariableCollection, error) {
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Collections, nil
}

func (s *Snapshot) Variables(ctx context.Context) ([]figma.Variable, error) {
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Variables, nil
}

// DecodeSnapshot parses a variables endpoint response.
func DecodeSnapshot(raw []byte, asYAML bool) (*figma.LocalVariablesResponse, error) {
	var resp figma.LocalVariablesResponse
	if asYAML {
		if err := yaml.Unmarshal(raw, &resp); err != nil {
			return nil, err
		}
	} else {
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, err
		}
	}

	if resp.Error {
		return nil, errors.Newf("snapshot holds an error response (status %d)", resp.Status)
	}
	if len(resp.Meta.VariableCollections) == 0 && len(resp.Meta.Variables) == 0 {
		return nil, errors.WithHint(errors.New("snapshot has no variables or collections"),
			"a snapshot is the body of GET /v1/files/:key/variables/local, with a top-level \"meta\" key")
	}
	return &resp, nil
}

// WriteSnapshot saves resp to path, as YAML when the extension asks for it.
func WriteSnapshot(path string, resp *figma.LocalVariablesResponse) error {
	var (
		raw []byte
		err error
	)
	if isYAML(path) {
		raw, err = yaml.Marshal(resp)
	} else {
		raw, err = json.MarshalIndent(resp, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	return errors.Wrap(os.WriteFile(path, raw, 0o644), "write snapshot")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
