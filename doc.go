// Package figmatokens exports Figma design variables as platform design
// tokens: CSS custom properties, Swift, Android resources, Flutter, W3C
// design token JSON and a Tailwind theme.
//
// The CLI lives in cmd/figma-tokens; this root package exposes the same
// pipeline as a Go API so that callers can embed exports in their own
// tools or serve them to a host application.
//
// # Import
//
// The module path contains a hyphen but Go package names cannot, so the
// package is named figmatokens:
//
//	import "github.com/hellenic-development/figma-tokens" // package figmatokens
//
// # Quick start
//
//	client := figma.NewClient(os.Getenv("FIGMA_TOKEN"))
//	src, err := source.NewFigma(client, "https://www.figma.com/design/ABC123/My-Design")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var rec host.Recorder
//	result, err := figmatokens.Export(ctx, src, &rec, figmatokens.Request{
//	    CollectionIDs: []string{"VariableCollectionId:1:2"},
//	    Formats:       []string{"css", "w3c"},
//	    TokenTypes:    []string{"color", "number"},
//	}, figmatokens.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range result.Files {
//	    os.WriteFile(f.Filename, []byte(f.Content), 0644)
//	}
//
// # Stages
//
// A run moves through validating, fetching, resolving, serializing and
// finalizing, reporting 10, 25, 50, 75, 95 and finally 100 percent on the
// [host.Channel]. A run ends with exactly one export-result message; an
// empty one means the run failed and is followed by an error notification.
//
// Only two failures abort a run: a bad request ([ErrValidation]) and output
// larger than [Options.MaxOutputBytes] ([ErrCapacity]). A variable that
// cannot be resolved is skipped and a format whose renderer fails is left
// out; both are recorded on [RunContext].
//
// # Logging
//
// Pass a *zap.Logger in [Options.Logger] to receive structured progress and
// error logs. A nil Logger silences all output.
//
// # Hosts
//
// [Serve] answers get-collections and export-tokens messages on a
// [host.Conn] until the host goes away. The CLI offers it over stdin and
// stdout, over a WebSocket and as MCP tools.
package figmatokens
