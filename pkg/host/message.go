// Package host defines the message protocol between the exporter and the
// application hosting it, and the transports that carry it.
//
// Every message travels as a flat JSON object whose "type" field names it:
//
//	{"type":"export-tokens","collectionIds":["VariableCollectionId:1"],"formats":["css"],"activeTokenTypes":["color"]}
//	{"type":"export-progress","percent":50}
package host

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/hellenic-development/figma-tokens/pkg/formatter"
	"github.com/hellenic-development/figma-tokens/pkg/inventory"
)

// MessageType is the value of the "type" field.
type MessageType string

const (
	TypeGetCollections MessageType = "get-collections"
	TypeExportTokens   MessageType = "export-tokens"
	TypeExportProgress MessageType = "export-progress"
	TypeExportResult   MessageType = "export-result"
	TypeNotify         MessageType = "notify"
	TypeCollections    MessageType = "collections"
)

// ErrUnknownMessage is returned when decoding a message whose type is not
// part of the protocol in that direction.
var ErrUnknownMessage = errors.New("unknown message type")

// ErrMalformedMessage marks input that is not a valid protocol object.
var ErrMalformedMessage = errors.New("malformed message")

// Message is any protocol message.
type Message interface {
	Type() MessageType
}

// Inbound messages travel from the host to the exporter.
type Inbound interface {
	Message
	inbound()
}

// Outbound messages travel from the exporter to the host.
type Outbound interface {
	Message
	outbound()
}

// GetCollections asks for the collection inventory.
type GetCollections struct{}

// ExportTokens starts an export.
type ExportTokens struct {
	CollectionIDs    []string `json:"collectionIds"`
	Formats          []string `json:"formats"`
	ActiveTokenTypes []string `json:"activeTokenTypes"`
}

// ExportProgress reports a stage transition.
type ExportProgress struct {
	Percent int `json:"percent"`
}

// ExportResult carries the artifacts of a run. An empty Data means the run
// failed and is paired with an error Notify.
type ExportResult struct {
	Data []formatter.File `json:"data"`
}

// Notify is a user-facing status line.
type Notify struct {
	Message string `json:"message"`
	Error   bool   `json:"error,omitempty"`
}

// Collections answers GetCollections.
type Collections struct {
	Collections []inventory.Collection `json:"collections"`
}

func (GetCollections) Type() MessageType { return TypeGetCollections }
func (ExportTokens) Type() MessageType   { return TypeExportTokens }
func (ExportProgress) Type() MessageType { return TypeExportProgress }
func (ExportResult) Type() MessageType   { return TypeExportResult }
func (Notify) Type() MessageType         { return TypeNotify }
func (Collections) Type() MessageType    { return TypeCollections }

func (GetCollections) inbound() {}
func (ExportTokens) inbound()   {}

func (ExportProgress) outbound() {}
func (ExportResult) outbound()   {}
func (Notify) outbound()         {}
func (Collections) outbound()    {}

// Marshal encodes m as a flat object with its type first.
func Marshal(m Message) ([]byte, error) {
	body, err := json.Marshal(normalize(m))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", m.Type())
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, errors.Newf("encode %s: not an object", m.Type())
	}

	typ, _ := json.Marshal(m.Type())

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// normalize makes empty lists encode as [] rather than null.
func normalize(m Message) Message {
	switch v := m.(type) {
	case ExportResult:
		if v.Data == nil {
			v.Data = []formatter.File{}
		}
		return v
	case Collections:
		if v.Collections == nil {
			v.Collections = []inventory.Collection{}
		}
		return v
	}
	return m
}

type envelope struct {
	Type MessageType `json:"type"`
}

// DecodeInbound parses a message sent by the host.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode message"), ErrMalformedMessage)
	}

	switch env.Type {
	case TypeGetCollections:
		return GetCollections{}, nil
	case TypeExportTokens:
		var m ExportTokens
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "decode %s", env.Type), ErrMalformedMessage)
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrUnknownMessage, "%q", env.Type)
	}
}

// DecodeOutbound parses a message sent by the exporter.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode message"), ErrMalformedMessage)
	}

	var (
		m   Outbound
		err error
	)
	switch env.Type {
	case TypeExportProgress:
		var v ExportProgress
		err = json.Unmarshal(data, &v)
		m = v
	case TypeExportResult:
		var v ExportResult
		err = json.Unmarshal(data, &v)
		m = v
	case TypeNotify:
		var v Notify
		err = json.Unmarshal(data, &v)
		m = v
	case TypeCollections:
		var v Collections
		err = json.Unmarshal(data, &v)
		m = v
	default:
		return nil, errors.Wrapf(ErrUnknownMessage, "%q", env.Type)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decode %s", env.Type), ErrMalformedMessage)
	}
	return m, nil
}
