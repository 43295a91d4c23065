// Package replay implements the replay-buffer boundary: the wire record
// and its codec, a tabular store keyed by time with secondary orderings
// on priority and reward, an unbounded in-memory buffer variant, and the
// identity-addressed envelope framing. The socket transport itself lives
// outside this module; this package covers everything up to it.
package replay

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
)

// Record is one replay-buffer entry as it crosses the wire.
type Record struct {
	Timestamp uint64
	GameID    uint64
	Machine   string
	Seq       int32
	Pri       float32
	Reward    float32
	Content   []byte
}

// ContentHash returns the blake3 content hash of Content, used as the
// content-addressing key.
func (r Record) ContentHash() [32]byte {
	return blake3.Sum256(r.Content)
}

const contentCompressedFlag = 1

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func zstdEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil)
	})
	return encoder
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// Encode serializes r into a length-prefixed wire record: a fixed header
// (timestamp, game id, seq, pri, reward, a length-prefixed machine
// string), a one-byte compression flag, and the record's content,
// zstd-compressed only when doing so shrinks it.
func Encode(r Record) ([]byte, error) {
	var buf bytes.Buffer
	fields := []any{r.Timestamp, r.GameID, r.Seq, r.Pri, r.Reward}
	for _, f := range fields {
		if err := binary.Write(&buf, binary.BigEndian, f); err != nil {
			return nil, fmt.Errorf("replay: encode header: %w", err)
		}
	}

	machine := []byte(r.Machine)
	if len(machine) > 0xFFFF {
		return nil, fmt.Errorf("replay: machine name too long: %d bytes", len(machine))
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(machine))); err != nil {
		return nil, err
	}
	buf.Write(machine)

	content := r.Content
	flag := byte(0)
	if enc := zstdEncoder(); enc != nil {
		if compressed := enc.EncodeAll(r.Content, nil); len(compressed) < len(r.Content) {
			content = compressed
			flag = contentCompressedFlag
		}
	}
	buf.WriteByte(flag)
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(content))); err != nil {
		return nil, err
	}
	buf.Write(content)

	return buf.Bytes(), nil
}

// Decode parses the wire format Encode produces back into a Record.
func Decode(data []byte) (Record, error) {
	buf := bytes.NewReader(data)
	var r Record

	if err := binary.Read(buf, binary.BigEndian, &r.Timestamp); err != nil {
		return Record{}, fmt.Errorf("replay: decode timestamp: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &r.GameID); err != nil {
		return Record{}, fmt.Errorf("replay: decode game id: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &r.Seq); err != nil {
		return Record{}, fmt.Errorf("replay: decode seq: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &r.Pri); err != nil {
		return Record{}, fmt.Errorf("replay: decode pri: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &r.Reward); err != nil {
		return Record{}, fmt.Errorf("replay: decode reward: %w", err)
	}

	var machineLen uint16
	if err := binary.Read(buf, binary.BigEndian, &machineLen); err != nil {
		return Record{}, fmt.Errorf("replay: decode machine length: %w", err)
	}
	machine := make([]byte, machineLen)
	if _, err := io.ReadFull(buf, machine); err != nil {
		return Record{}, fmt.Errorf("replay: decode machine: %w", err)
	}
	r.Machine = string(machine)

	flag, err := buf.ReadByte()
	if err != nil {
		return Record{}, fmt.Errorf("replay: decode compression flag: %w", err)
	}
	var contentLen uint32
	if err := binary.Read(buf, binary.BigEndian, &contentLen); err != nil {
		return Record{}, fmt.Errorf("replay: decode content length: %w", err)
	}
	content := make([]byte, contentLen)
	if _, err := io.ReadFull(buf, content); err != nil {
		return Record{}, fmt.Errorf("replay: decode content: %w", err)
	}

	if flag == contentCompressedFlag {
		dec := zstdDecoder()
		if dec == nil {
			return Record{}, fmt.Errorf("replay: content is compressed but no decoder is available")
		}
		content, err = dec.DecodeAll(content, nil)
		if err != nil {
			return Record{}, fmt.Errorf("replay: decompress content: %w", err)
		}
	}
	r.Content = content

	return r, nil
}
