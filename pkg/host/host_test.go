package host

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellenic-development/figma-tokens/pkg/formatter"
	"github.com/hellenic-development/figma-tokens/pkg/inventory"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"progress", ExportProgress{Percent: 25}, `{"type":"export-progress","percent":25}`},
		{"empty result", ExportResult{}, `{"type":"export-result","data":[]}`},
		{
			"result",
			ExportResult{Data: []formatter.File{{Filename: "tokens.css", Content: ":root {}\n"}}},
			`{"type":"export-result","data":[{"filename":"tokens.css","content":":root {}\n"}]}`,
		},
		{"notify", Notify{Message: "Exported 1 file(s)"}, `{"type":"notify","message":"Exported 1 file(s)"}`},
		{"notify error", Notify{Message: "Export failed", Error: true}, `{"type":"notify","message":"Export failed","error":true}`},
		{"get collections", GetCollections{}, `{"type":"get-collections"}`},
		{"no collections", Collections{}, `{"type":"collections","collections":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
			assert.True(t, strings.HasPrefix(string(got), `{"type":`))
		})
	}
}

func TestDecodeInbound(t *testing.T) {
	m, err := DecodeInbound([]byte(`{"type":"export-tokens","collectionIds":["c1"],"formats":["css","w3c"],"activeTokenTypes":["color"]}`))
	require.NoError(t, err)
	assert.Equal(t, ExportTokens{
		CollectionIDs:    []string{"c1"},
		Formats:          []string{"css", "w3c"},
		ActiveTokenTypes: []string{"color"},
	}, m)

	m, err = DecodeInbound([]byte(`{"type":"get-collections"}`))
	require.NoError(t, err)
	assert.Equal(t, GetCollections{}, m)

	_, err = DecodeInbound([]byte(`{"type":"export-progress","percent":10}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = DecodeInbound([]byte(`{"type":"resize"}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = DecodeInbound([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = DecodeInbound([]byte(`{"type":"export-tokens","formats":"css"}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecodeOutbound(t *testing.T) {
	for _, msg := range []Outbound{
		ExportProgress{Percent: 95},
		ExportResult{Data: []formatter.File{{Filename: "tokens.json", Content: "{}\n"}}},
		Notify{Message: "hi", Error: true},
		Collections{Collections: []inventory.Collection{{ID: "c1", Name: "Colors", TypeCounts: map[string]int{"color": 2}}}},
	} {
		data, err := Marshal(msg)
		require.NoError(t, err)
		got, err := DecodeOutbound(data)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}

	_, err := DecodeOutbound([]byte(`{"type":"export-tokens"}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestStream(t *testing.T) {
	in := strings.NewReader("{\"type\":\"get-collections\"}\n\n   \n{\"type\":\"export-tokens\",\"formats\":[\"css\"]}\n")
	var out bytes.Buffer
	s := NewStream(in, &out)
	ctx := context.Background()

	m, err := s.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, GetCollections{}, m)

	m, err = s.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"css"}, m.(ExportTokens).Formats)

	_, err = s.Receive(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Send(ctx, ExportProgress{Percent: 10}))
	require.NoError(t, s.Send(ctx, Notify{Message: "done"}))
	assert.Equal(t, "{\"type\":\"export-progress\",\"percent\":10}\n{\"type\":\"notify\",\"message\":\"done\"}\n", out.String())
}

func TestStream_ConcurrentSendsDoNotInterleave(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader(""), &out)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Send(context.Background(), ExportProgress{Percent: i}))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, l := range lines {
		_, err := DecodeOutbound([]byte(l))
		assert.NoError(t, err)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	require.NoError(t, r.Send(ctx, ExportProgress{Percent: 10}))
	require.NoError(t, r.Send(ctx, ExportResult{Data: []formatter.File{{Filename: "a"}}}))
	require.NoError(t, r.Send(ctx, Notify{Message: "ok"}))

	assert.Equal(t, []int{10}, r.Progress())
	assert.Equal(t, []Notify{{Message: "ok"}}, r.Notifications())
	res, ok := r.Result()
	require.True(t, ok)
	assert.Len(t, res.Data, 1)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, r.Send(cancelled, Notify{}), context.Canceled)
	assert.Len(t, r.Messages(), 3)
}

func TestWebSocket_RoundTrip(t *testing.T) {
	serve := func(ctx context.Context, conn Conn) error {
		for {
			m, err := conn.Receive(ctx)
			if err != nil {
				return err
			}
			switch m.(type) {
			case GetCollections:
				err = conn.Send(ctx, Collections{Collections: []inventory.Collection{{ID: "c1", Name: "Colors"}}})
			case ExportTokens:
				err = conn.Send(ctx, ExportProgress{Percent: 100})
			}
			if err != nil {
				return err
			}
		}
	}

	srv := httptest.NewServer(Handler(serve, HandlerOptions{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"get-collections"}`)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	got, err := DecodeOutbound(data)
	require.NoError(t, err)
	assert.Equal(t, "Colors", got.(Collections).Collections[0].Name)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"export-tokens","formats":["css"]}`)))
	_, data, err = client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"export-progress","percent":100}`, string(data))
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	def := originChecker(nil)
	assert.True(t, def(req("")))
	assert.True(t, def(req("http://localhost:5173")))
	assert.True(t, def(req("http://127.0.0.1:8080")))
	assert.False(t, def(req("https://evil.example")))
	assert.False(t, def(req("http://localhost.evil.example")))
	assert.False(t, def(req("http://127.0.0.1.evil.example:80")))
	assert.False(t, def(req("ftp://localhost")))

	custom := originChecker([]string{"https://www.figma.com"})
	assert.True(t, custom(req("https://www.figma.com")))
	assert.False(t, custom(req("http://localhost:5173")))
	assert.False(t, custom(req("https://www.figma.com.evil.example")))
	assert.False(t, custom(req("http://www.figma.com")))

	pinned := originChecker([]string{"http://localhost:5173"})
	assert.True(t, pinned(req("http://localhost:5173")))
	assert.False(t, pinned(req("http://localhost:5174")))
	assert.True(t, originChecker([]string{"*"})(req("https://anything.example")))
}
