package figmatokens

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/inventory"
	"github.com/hellenic-development/figma-tokens/pkg/logging"
	"github.com/hellenic-development/figma-tokens/pkg/source"
)

// ListCollections summarizes the collections of src for selection.
func ListCollections(ctx context.Context, src source.Source) ([]inventory.Collection, error) {
	cols, err := inventory.Collect(ctx, src)
	if err != nil {
		return nil, errors.Wrap(err, "list collections")
	}
	return cols, nil
}

// Serve answers messages from conn until the host goes away, which is not an
// error. Messages are handled one at a time, in arrival order. A message
// Serve cannot understand is reported to the host and skipped.
func Serve(ctx context.Context, conn host.Conn, src source.Source, opts Options) error {
	logger := logging.OrNop(opts.Logger)

	for {
		msg, err := conn.Receive(ctx)
		switch {
		case errors.Is(err, io.EOF):
			logger.Debug("host disconnected")
			return nil
		case errors.Is(err, host.ErrUnknownMessage), errors.Is(err, host.ErrMalformedMessage):
			logger.Warn("ignoring message", zap.Error(err))
			if err := conn.Send(ctx, host.Notify{Message: err.Error(), Error: true}); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}

		if err := dispatch(ctx, conn, src, msg, opts); err != nil {
			return err
		}
	}
}

func dispatch(ctx context.Context, conn host.Conn, src source.Source, msg host.Inbound, opts Options) error {
	logger := logging.OrNop(opts.Logger)

	switch m := msg.(type) {
	case host.GetCollections:
		cols, err := ListCollections(ctx, src)
		if err != nil {
			logger.Error("list collections failed", zap.Error(err))
			return conn.Send(ctx, host.Notify{Message: "Could not read collections: " + err.Error(), Error: true})
		}
		return conn.Send(ctx, host.Collections{Collections: cols})

	case host.ExportTokens:
		// Export reports its own failures to the host.
		if _, err := Export(ctx, src, conn, RequestFromMessage(m), opts); err != nil {
			logger.Debug("export aborted", zap.Error(err))
		}
		return ctx.Err()

	default:
		logger.Warn("unhandled message", zap.String("type", string(msg.Type())))
		return nil
	}
}
