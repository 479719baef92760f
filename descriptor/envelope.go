package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

const (
	envelopeMagic   = "GNPR"
	envelopeVersion = uint16(1)

	stageMeta       = "meta"
	stageDescriptor = "descriptor"
	stageChecksum   = "checksum"

	maxEnvelopeStages    = 64
	maxStagePayloadBytes = 1 << 30
	maxOriginBytes       = 255
)

// ErrChecksum indicates the descriptor stage does not match its checksum.
var ErrChecksum = errors.New("descriptor checksum mismatch")

// An envelope is "GNPR", a uint16 version and a uint16 stage count followed
// by that many stages. Each stage is a uint8 name length, uint16 param length
// and uint32 payload length (all little-endian), then the name, params and
// payload bytes. The meta stage holds uvarint(length) and the origin tag; the
// descriptor stage holds the tree compressed with the codec named by its one
// param byte; the optional checksum stage holds the xxhash64 of the
// uncompressed tree. Stages with other names are skipped.

// Envelope is the persisted form of a descriptor: the kind-tagged tree, the
// length it regenerates and the caller's origin tag for converting the
// regenerated sequence back into a native value.
type Envelope struct {
	Origin     string
	Length     int
	Codec      Codec
	Descriptor Descriptor
}

// appendStage frames one stage onto dst.
func appendStage(dst []byte, name string, params, payload []byte) ([]byte, error) {
	switch {
	case len(name) == 0 || len(name) > 0xFF:
		return dst, fmt.Errorf("invalid stage name length: %d", len(name))
	case len(params) > 0xFFFF:
		return dst, fmt.Errorf("stage %q params too large: %d", name, len(params))
	case len(payload) > maxStagePayloadBytes:
		return dst, fmt.Errorf("stage %q payload too large: %d", name, len(payload))
	}
	dst = append(dst, byte(len(name)))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(params)))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, name...)
	dst = append(dst, params...)
	return append(dst, payload...), nil
}

func validateEnvelope(e *Envelope) error {
	if e.Length < 0 {
		return Malformedf("negative length %d", e.Length)
	}
	if len(e.Origin) > maxOriginBytes {
		return fmt.Errorf("origin tag too long: %d bytes", len(e.Origin))
	}
	return Validate(e.Descriptor)
}

// WriteTo serializes the envelope.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	if err := validateEnvelope(e); err != nil {
		return 0, fmt.Errorf("invalid envelope: %w", err)
	}

	tree, err := appendTree(nil, e.Descriptor)
	if err != nil {
		return 0, err
	}
	compressed, codec, err := compressStage(e.Codec, tree)
	if err != nil {
		return 0, err
	}
	meta := binary.AppendUvarint(nil, uint64(e.Length))
	meta = append(meta, e.Origin...)

	buf := append([]byte(nil), envelopeMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, envelopeVersion)
	buf = binary.LittleEndian.AppendUint16(buf, 3)
	if buf, err = appendStage(buf, stageMeta, nil, meta); err != nil {
		return 0, err
	}
	if buf, err = appendStage(buf, stageDescriptor, []byte{byte(codec)}, compressed); err != nil {
		return 0, err
	}
	sum := binary.LittleEndian.AppendUint64(nil, xxhash.Sum64(tree))
	if buf, err = appendStage(buf, stageChecksum, nil, sum); err != nil {
		return 0, err
	}

	n, err := w.Write(buf)
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// envelopeReader tracks the offset into the envelope for error reporting.
type envelopeReader struct {
	r   io.Reader
	off int64
}

func (er *envelopeReader) read(n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	start := er.off
	k, err := io.ReadFull(er.r, buf)
	er.off += int64(k)
	if err != nil {
		return nil, fmt.Errorf("read %s at offset %d: %w", what, start, err)
	}
	return buf, nil
}

// stage reads the next stage. Stages not wanted have their payload
// discarded and are returned with a nil payload.
func (er *envelopeReader) stage(index int, wanted func(string) bool) (name string, params, payload []byte, err error) {
	fixed, err := er.read(7, fmt.Sprintf("stage %d header", index))
	if err != nil {
		return "", nil, nil, err
	}
	nameLen := int(fixed[0])
	paramLen := int(binary.LittleEndian.Uint16(fixed[1:3]))
	dataLen := binary.LittleEndian.Uint32(fixed[3:7])
	if nameLen == 0 {
		return "", nil, nil, fmt.Errorf("stage %d at offset %d has an empty name", index, er.off-7)
	}
	if dataLen > maxStagePayloadBytes {
		return "", nil, nil, fmt.Errorf("stage %d payload too large: %d", index, dataLen)
	}

	raw, err := er.read(nameLen+paramLen, fmt.Sprintf("stage %d name", index))
	if err != nil {
		return "", nil, nil, err
	}
	name, params = string(raw[:nameLen]), raw[nameLen:]

	if !wanted(name) {
		skipped, err := io.CopyN(io.Discard, er.r, int64(dataLen))
		er.off += skipped
		if err != nil {
			return name, nil, nil, fmt.Errorf("skip stage %q: %w", name, err)
		}
		return name, params, nil, nil
	}
	payload, err = er.read(int(dataLen), fmt.Sprintf("stage %q payload", name))
	return name, params, payload, err
}

func knownStage(name string) bool {
	return name == stageMeta || name == stageDescriptor || name == stageChecksum
}

// ReadFrom deserializes an envelope. Malformed descriptors are reported with
// ErrMalformed; a corrupted descriptor stage with ErrChecksum.
func (e *Envelope) ReadFrom(r io.Reader) (int64, error) {
	er := &envelopeReader{r: r}
	head, err := er.read(8, "envelope header")
	if err != nil {
		return er.off, err
	}
	if magic := string(head[:4]); magic != envelopeMagic {
		return er.off, fmt.Errorf("invalid envelope magic at offset 0: %q", magic)
	}
	if version := binary.LittleEndian.Uint16(head[4:6]); version != envelopeVersion {
		return er.off, fmt.Errorf("unsupported envelope version %d", version)
	}
	stageCount := int(binary.LittleEndian.Uint16(head[6:8]))
	if stageCount == 0 || stageCount > maxEnvelopeStages {
		return er.off, fmt.Errorf("invalid stage count %d", stageCount)
	}

	var (
		out      Envelope
		tree     []byte
		checksum []byte
		seen     = make(map[string]bool, stageCount)
	)
	for i := 0; i < stageCount; i++ {
		name, params, payload, err := er.stage(i, knownStage)
		if err != nil {
			return er.off, err
		}
		if seen[name] {
			return er.off, fmt.Errorf("duplicate stage %q at stage index %d", name, i)
		}
		seen[name] = true

		switch name {
		case stageMeta:
			length, k := binary.Uvarint(payload)
			if k <= 0 || length > maxStagePayloadBytes {
				return er.off, fmt.Errorf("stage %q: invalid length", name)
			}
			out.Length = int(length)
			out.Origin = string(payload[k:])
		case stageDescriptor:
			if len(params) != 1 {
				return er.off, fmt.Errorf("stage %q: expected 1 param byte, got %d", name, len(params))
			}
			out.Codec = Codec(params[0])
			if tree, err = decompressStage(out.Codec, payload); err != nil {
				return er.off, fmt.Errorf("stage %q: %w", name, err)
			}
		case stageChecksum:
			if len(payload) != 8 {
				return er.off, fmt.Errorf("stage %q: expected 8 bytes, got %d", name, len(payload))
			}
			checksum = payload
		}
	}

	for _, required := range []string{stageMeta, stageDescriptor} {
		if !seen[required] {
			return er.off, fmt.Errorf("missing required stage %q", required)
		}
	}
	if checksum != nil && binary.LittleEndian.Uint64(checksum) != xxhash.Sum64(tree) {
		return er.off, ErrChecksum
	}
	if out.Descriptor, err = decodeTree(tree); err != nil {
		return er.off, fmt.Errorf("decode descriptor tree: %w", err)
	}
	if err := validateEnvelope(&out); err != nil {
		return er.off, fmt.Errorf("invalid envelope structure: %w", err)
	}

	*e = out
	return er.off, nil
}
