// Package wire implements the length-prefixed message framing of
// SPEC_FULL.md §4.7: a 2-byte big-endian header length, a UTF-8 JSON
// header, and a payload whose length the header names. It is grounded on
// original_source/network/fullnode_connections.py's
// _create_database_message (struct.pack(">H", len(jsonheader_bytes))) and
// lightnode_connections.py's _create_client_message.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

// ContentType enumerates the three payload shapes the wire protocol
// carries.
type ContentType string

const (
	TransactionContent ContentType = "transaction_content"
	DatabaseContent    ContentType = "database_content"
	DBRequest          ContentType = "db_request"
)

// dbRequestSentinel is the single arbitrary byte a db_request payload
// carries — its value is never inspected, matching SPEC_FULL.md §4.7's
// "content-length may be 1, value arbitrary" and
// lightnode_connections.py's literal b"0" sentinel.
var dbRequestSentinel = []byte{0}

// Header is the JSON object that precedes every payload. All three keys
// are required on the wire; a missing one is a ProtocolError.
type Header struct {
	ByteOrder     string      `json:"byteorder"`
	ContentType   ContentType `json:"content-type"`
	ContentLength int         `json:"content-length"`
}

// Frame encodes content as a complete wire message: 2-byte header length,
// JSON header, payload.
func Frame(contentType ContentType, payload []byte) ([]byte, error) {
	if contentType == DBRequest && len(payload) == 0 {
		payload = dbRequestSentinel
	}
	header := Header{ByteOrder: "big", ContentType: contentType, ContentLength: len(payload)}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	if len(headerJSON) > 0xFFFF {
		return nil, &xerrors.ProtocolError{Reason: "header too large to frame"}
	}

	out := make([]byte, 2+len(headerJSON)+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(headerJSON)))
	copy(out[2:], headerJSON)
	copy(out[2+len(headerJSON):], payload)
	return out, nil
}

// HeaderLen decodes the 2-byte big-endian length prefix.
func HeaderLen(prefix []byte) (int, error) {
	if len(prefix) < 2 {
		return 0, &xerrors.ProtocolError{Reason: "short header-length prefix"}
	}
	return int(binary.BigEndian.Uint16(prefix)), nil
}

// requiredHeaderKeys are the three keys SPEC_FULL.md §4.7 requires present
// on the wire; unmarshaling straight into Header would silently accept a
// header that omits one (content-length defaults to 0, which also passes
// the non-negative check), so presence is checked against the raw object
// first.
var requiredHeaderKeys = []string{"byteorder", "content-type", "content-length"}

// ParseHeader decodes and validates the JSON header, rejecting any header
// missing a required key or naming an unrecognized content-type.
func ParseHeader(raw []byte) (Header, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Header{}, &xerrors.ProtocolError{Reason: fmt.Sprintf("malformed header json: %v", err)}
	}
	for _, key := range requiredHeaderKeys {
		if _, ok := fields[key]; !ok {
			return Header{}, &xerrors.ProtocolError{Reason: "header missing required key: " + key}
		}
	}

	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return Header{}, &xerrors.ProtocolError{Reason: fmt.Sprintf("malformed header json: %v", err)}
	}
	if h.ByteOrder != "big" && h.ByteOrder != "little" {
		return Header{}, &xerrors.ProtocolError{Reason: "missing or invalid byteorder"}
	}
	switch h.ContentType {
	case TransactionContent, DatabaseContent, DBRequest:
	default:
		return Header{}, &xerrors.ProtocolError{Reason: "unrecognized content-type: " + string(h.ContentType)}
	}
	if h.ContentLength < 0 {
		return Header{}, &xerrors.ProtocolError{Reason: "negative content-length"}
	}
	return h, nil
}
