package figma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFileKey(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name:    "valid /file/ URL",
			url:     "https://www.figma.com/file/ABC123XYZ/Design-Name",
			want:    "ABC123XYZ",
			wantErr: false,
		},
		{
			name:    "valid /design/ URL",
			url:     "https://www.figma.com/design/ABC123XYZ/Design-Name",
			want:    "ABC123XYZ",
			wantErr: false,
		},
		{
			name:    "URL with node-id parameter",
			url:     "https://www.figma.com/design/4gkABR5gEZnIvlCaXmA4KI/Makis-s-file?node-id=11933-305884",
			want:    "4gkABR5gEZnIvlCaXmA4KI",
			wantErr: false,
		},
		{
			name:    "URL with additional parameters",
			url:     "https://www.figma.com/design/4gkABR5gEZnIvlCaXmA4KI/Makis-s-file?node-id=11933-305884&t=ObvUckUHZc8tSjeT-1",
			want:    "4gkABR5gEZnIvlCaXmA4KI",
			wantErr: false,
		},
		{
			name:    "URL without www subdomain",
			url:     "https://figma.com/file/ABC123XYZ/Design-Name",
			want:    "ABC123XYZ",
			wantErr: false,
		},
		{
			name:    "URL with http protocol",
			url:     "http://www.figma.com/file/ABC123XYZ/Design-Name",
			want:    "ABC123XYZ",
			wantErr: false,
		},
		{
			name:    "URL with trailing slash",
			url:     "https://www.figma.com/file/ABC123XYZ/",
			want:    "ABC123XYZ",
			wantErr: false,
		},
		{
			name:    "invalid URL - missing file key",
			url:     "https://www.figma.com/file/",
			want:    "",
			wantErr: true,
		},
		{
			name:    "invalid URL - wrong domain",
			url:     "https://www.example.com/file/ABC123XYZ",
			want:    "",
			wantErr: true,
		},
		{
			name:    "invalid URL - wrong path",
			url:     "https://www.figma.com/dashboard/ABC123XYZ",
			want:    "",
			wantErr: true,
		},
		{
			name:    "empty URL",
			url:     "",
			want:    "",
			wantErr: true,
		},
		{
			name:    "query directly after file key",
			url:     "https://www.figma.com/design/ABC123XYZ?node-id=1-2",
			want:    "ABC123XYZ",
			wantErr: false,
		},
		{
			name:    "file key with mixed alphanumeric",
			url:     "https://www.figma.com/file/aB1cD2eF3gH4iJ5kL6/MyDesign",
			want:    "aB1cD2eF3gH4iJ5kL6",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFileKey(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractFileKey() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ExtractFileKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

const variablesBody = `{
  "status": 200,
  "error": false,
  "meta": {
    "variables": {
      "VariableID:1:1": {
        "id": "VariableID:1:1",
        "name": "color/brand/primary",
        "variableCollectionId": "VariableCollectionId:1:0",
        "resolvedType": "COLOR",
        "valuesByMode": {"1:0": {"r": 1, "g": 0, "b": 0, "a": 1}},
        "scopes": ["ALL_SCOPES"]
      },
      "VariableID:1:2": {
        "id": "VariableID:1:2",
        "name": "color/brand/secondary",
        "variableCollectionId": "VariableCollectionId:1:0",
        "resolvedType": "COLOR",
        "valuesByMode": {"1:0": {"type": "VARIABLE_ALIAS", "id": "VariableID:1:1"}}
      }
    },
    "variableCollections": {
      "VariableCollectionId:1:0": {
        "id": "VariableCollectionId:1:0",
        "name": "Primitives",
        "modes": [{"modeId": "1:0", "name": "Light"}],
        "defaultModeId": "1:0",
        "variableIds": ["VariableID:1:1", "VariableID:1:2"]
      }
    }
  }
}`

func newTestClient(url string) *Client {
	return NewClient("secret",
		WithBaseURL(url),
		WithRetry(3, time.Millisecond),
		WithRateLimit(1000, 10),
	)
}

func TestGetLocalVariables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/FILE123/variables/local", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Figma-Token"))
		w.Write([]byte(variablesBody))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).GetLocalVariables(context.Background(), "FILE123")
	require.NoError(t, err)

	require.Len(t, resp.Meta.Variables, 2)
	primary := resp.Meta.Variables["VariableID:1:1"]
	assert.Equal(t, ResolvedTypeColor, primary.ResolvedType)
	assert.Equal(t, ColorValue(Color{R: 1, A: 1}), primary.ValuesByMode["1:0"])

	secondary := resp.Meta.Variables["VariableID:1:2"]
	assert.True(t, secondary.ValuesByMode["1:0"].IsAlias())
	assert.Equal(t, "VariableID:1:1", secondary.ValuesByMode["1:0"].AliasID)

	coll := resp.Meta.VariableCollections["VariableCollectionId:1:0"]
	assert.Equal(t, "1:0", coll.DefaultModeID)
	assert.Equal(t, []string{"VariableID:1:1", "VariableID:1:2"}, coll.VariableIDs)
}

func TestGetLocalVariables_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(variablesBody))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).GetLocalVariables(context.Background(), "FILE123")
	require.NoError(t, err)
	assert.Len(t, resp.Meta.Variables, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetLocalVariables_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetLocalVariables(context.Background(), "FILE123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(1), calls.Load())
}
