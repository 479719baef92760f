package descriptor

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Codec selects how the descriptor stage of an envelope is compressed.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecFlate
	CodecZstd
	CodecLZ4
	CodecXZ

	// CodecAuto tries every codec on write and keeps the smallest payload.
	// It is never stored on the wire.
	CodecAuto Codec = 0xFF
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecFlate:
		return "flate"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	case CodecXZ:
		return "xz"
	case CodecAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return CodecNone, nil
	case "flate":
		return CodecFlate, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	case "xz":
		return CodecXZ, nil
	case "auto":
		return CodecAuto, nil
	default:
		return CodecNone, fmt.Errorf("unknown codec: %q", name)
	}
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// zstd encoders and decoders are safe for concurrent use; build them once.
func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// compressStage returns the stage payload for raw and the codec actually used.
// Compressed payloads are prefixed with the uncompressed length.
func compressStage(c Codec, raw []byte) ([]byte, Codec, error) {
	if c == CodecAuto {
		best, bestCodec := raw, CodecNone
		for _, candidate := range []Codec{CodecFlate, CodecZstd, CodecLZ4, CodecXZ} {
			payload, used, err := compressStage(candidate, raw)
			if err != nil {
				return nil, CodecNone, err
			}
			if len(payload) < len(best) {
				best, bestCodec = payload, used
			}
		}
		return best, bestCodec, nil
	}

	var body []byte
	var err error
	switch c {
	case CodecNone:
		return raw, CodecNone, nil
	case CodecFlate:
		body, err = encodeFlate(raw)
	case CodecZstd:
		var enc *zstd.Encoder
		enc, _, err = zstdCodecs()
		if err == nil {
			body = enc.EncodeAll(raw, nil)
		}
	case CodecLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		var n int
		n, err = lz4.CompressBlock(raw, dst, nil)
		if err == nil && n == 0 {
			// Incompressible input: lz4 reports 0 written bytes.
			return raw, CodecNone, nil
		}
		body = dst[:n]
	case CodecXZ:
		body, err = encodeXZ(raw)
	default:
		return nil, CodecNone, fmt.Errorf("unsupported codec: %s", c)
	}
	if err != nil {
		return nil, CodecNone, fmt.Errorf("%s compress: %w", c, err)
	}

	out := binary.AppendUvarint(make([]byte, 0, len(body)+binary.MaxVarintLen64), uint64(len(raw)))
	return append(out, body...), c, nil
}

func decompressStage(c Codec, payload []byte) ([]byte, error) {
	if c == CodecNone {
		return payload, nil
	}

	rawLen, n := binary.Uvarint(payload)
	if n <= 0 {
		return nil, fmt.Errorf("%s stage: invalid length prefix", c)
	}
	if rawLen > maxStagePayloadBytes {
		return nil, fmt.Errorf("%s stage: declared length %d exceeds limit", c, rawLen)
	}
	body := payload[n:]

	var raw []byte
	var err error
	switch c {
	case CodecFlate:
		raw, err = readLimited(flate.NewReader(bytes.NewReader(body)))
	case CodecZstd:
		var dec *zstd.Decoder
		_, dec, err = zstdCodecs()
		if err == nil {
			raw, err = dec.DecodeAll(body, make([]byte, 0, rawLen))
		}
	case CodecLZ4:
		raw = make([]byte, rawLen)
		var read int
		read, err = lz4.UncompressBlock(body, raw)
		raw = raw[:read]
	case CodecXZ:
		var r *xz.Reader
		r, err = xz.NewReader(bytes.NewReader(body))
		if err == nil {
			raw, err = readLimited(r)
		}
	default:
		return nil, fmt.Errorf("unsupported codec: %s", c)
	}
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", c, err)
	}
	if uint64(len(raw)) != rawLen {
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d", c, len(raw), rawLen)
	}
	return raw, nil
}

func encodeFlate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXZ(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readLimited(r io.Reader) ([]byte, error) {
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxStagePayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxStagePayloadBytes {
		return nil, fmt.Errorf("payload expands beyond limit")
	}
	return raw, nil
}
