// Package wire implements the binary envelope byte-oriented bus drivers
// use to put a whole Message (not just its payload) on a single-blob
// transport such as a Redis pub/sub channel. It is grounded on
// foundrycore's tcp/udp framing: a short fixed header (format tag,
// version, compressor id) followed by a length-prefixed JSON metadata
// block and a compressed body.
package wire

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"foundrycore/compressor"
	"foundrycore/convert"
)

const (
	formatTag = "FCB" // foundrycore bus
	version   = 1

	formatLen = 3
	headerLen = formatLen + 1 /* version */ + 1 /* compressor id */ + 4 /* meta len */ + 4 /* body len */
)

// CompressorID selects the codec used for an envelope's body.
type CompressorID int8

const (
	CompressorNone CompressorID = iota
	CompressorLZ4
	CompressorZSTD
)

var ErrFormat = errors.New("wire: bad format tag")
var ErrShort = errors.New("wire: buffer shorter than declared lengths")
var ErrCompressor = errors.New("wire: unsupported compressor id")

// Envelope is the wire representation of a bus.Message. It's defined
// independently of the bus package (rather than wrapping bus.Message
// directly) so drivers own the conversion and wire stays free of a
// dependency on bus.
type Envelope struct {
	CorrelationID string
	TypeName      string
	ID            string
	Properties    map[string]string
	Body          []byte
}

type meta struct {
	CorrelationID string            `json:"c,omitempty"`
	TypeName      string            `json:"t"`
	ID            string            `json:"i,omitempty"`
	Properties    map[string]string `json:"p,omitempty"`
}

func codecFor(id CompressorID) (compressor.Compresser, error) {
	switch id {
	case CompressorNone:
		return compressor.NoneCompressor{}, nil
	case CompressorLZ4:
		return compressor.Lz4Compressor{}, nil
	case CompressorZSTD:
		return &compressor.ZstdCompressor{}, nil
	default:
		return nil, ErrCompressor
	}
}

// Encode serializes e into a single byte slice, compressing its body with
// the codec named by comp.
func Encode(e Envelope, comp CompressorID) ([]byte, error) {
	codec, err := codecFor(comp)
	if err != nil {
		return nil, err
	}

	metaBytes, err := json.Marshal(meta{
		CorrelationID: e.CorrelationID,
		TypeName:      e.TypeName,
		ID:            e.ID,
		Properties:    e.Properties,
	})
	if err != nil {
		return nil, err
	}

	body, err := codec.Compress(e.Body)
	if err != nil {
		if errors.Is(err, compressor.ErrNotShrunk) {
			comp = CompressorNone
			body = e.Body
		} else {
			return nil, errors.Errorf("wire: compress body: %w", err)
		}
	}

	out := make([]byte, 0, headerLen+len(metaBytes)+len(body))
	out = append(out, []byte(formatTag)...)
	out = append(out, convert.Int8ToByte(version)...)
	out = append(out, convert.Int8ToByte(int8(comp))...)
	out = append(out, convert.Int32ToByte(int32(len(metaBytes)))...)
	out = append(out, convert.Int32ToByte(int32(len(body)))...)
	out = append(out, metaBytes...)
	out = append(out, body...)
	return out, nil
}

// Decode parses b back into an Envelope.
func Decode(b []byte) (Envelope, error) {
	if len(b) < headerLen {
		return Envelope{}, ErrShort
	}
	if string(b[0:formatLen]) != formatTag {
		return Envelope{}, ErrFormat
	}

	compID, err := convert.BytesToInt8(b[formatLen+1 : formatLen+2])
	if err != nil {
		return Envelope{}, err
	}

	metaLen, err := convert.BytesToInt32(b[formatLen+2 : formatLen+6])
	if err != nil {
		return Envelope{}, err
	}
	bodyLen, err := convert.BytesToInt32(b[formatLen+6 : headerLen])
	if err != nil {
		return Envelope{}, err
	}
	if metaLen < 0 || bodyLen < 0 || len(b) < headerLen+int(metaLen)+int(bodyLen) {
		return Envelope{}, ErrShort
	}

	metaStart := headerLen
	metaEnd := metaStart + int(metaLen)
	bodyEnd := metaEnd + int(bodyLen)

	var m meta
	if err := json.Unmarshal(b[metaStart:metaEnd], &m); err != nil {
		return Envelope{}, errors.Errorf("wire: decode metadata: %w", err)
	}

	codec, err := codecFor(CompressorID(compID))
	if err != nil {
		return Envelope{}, err
	}
	body, err := codec.Decompress(b[metaEnd:bodyEnd])
	if err != nil {
		return Envelope{}, errors.Errorf("wire: decompress body: %w", err)
	}

	return Envelope{
		CorrelationID: m.CorrelationID,
		TypeName:      m.TypeName,
		ID:            m.ID,
		Properties:    m.Properties,
		Body:          body,
	}, nil
}
