package source

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hellenic-development/figma-tokens/pkg/figma"
)

// Figma reads the local variables of one file through the REST API.
type Figma struct {
	Client  *figma.Client
	FileKey string
}

var bareFileKey = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// NewFigma returns a source for the file named by fileRef, which is either a
// figma.com file/design URL or a bare file key.
func NewFigma(client *figma.Client, fileRef string) (*Figma, error) {
	if client == nil {
		return nil, errors.New("figma source requires a client")
	}

	fileRef = strings.TrimSpace(fileRef)
	key := fileRef
	if !bareFileKey.MatchString(fileRef) {
		var err error
		if key, err = figma.ExtractFileKey(fileRef); err != nil {
			return nil, errors.WithHint(err, "pass a figma.com/file/... or figma.com/design/... URL, or the bare file key")
		}
	}

	return &Figma{Client: client, FileKey: key}, nil
}

// Load performs one API call and returns its collections and variables.
func (f *Figma) Load(ctx context.Context) (*Data, error) {
	resp, err := f.Client.GetLocalVariables(ctx, f.FileKey)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch variables of file %s", f.FileKey)
	}
	return FromMeta(resp.Meta), nil
}

func (f *Figma) Collections(ctx context.Context) ([]figma.VariableCollection, error) {
	d, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Collections, nil
}

func (f *Figma) Variables(ctx context.Context) ([]figma.Variable, error) {
	d, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Variables, nil
}
