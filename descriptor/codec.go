package descriptor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Tree frame layout, repeated recursively for sub-descriptors:
//
//	kind       = uint8
//	size       = uvarint
//	payloadLen = uvarint
//	payload    = payloadLen bytes of JSON for the kind's payload struct
//	subCount   = uvarint
//	sub frames = subCount frames

func appendTree(dst []byte, d Descriptor) ([]byte, error) {
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return dst, fmt.Errorf("encode %s payload: %w", d.Kind, err)
	}
	dst = append(dst, byte(d.Kind))
	dst = binary.AppendUvarint(dst, uint64(d.Size))
	dst = binary.AppendUvarint(dst, uint64(len(payload)))
	dst = append(dst, payload...)
	dst = binary.AppendUvarint(dst, uint64(len(d.Sub)))
	for i := range d.Sub {
		if dst, err = appendTree(dst, d.Sub[i]); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

type treeReader struct {
	buf []byte
	off int
}

func (r *treeReader) uvarint(what string) (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, Malformedf("truncated %s at offset %d", what, r.off)
	}
	r.off += n
	return v, nil
}

func (r *treeReader) read(depth int) (Descriptor, error) {
	if depth > maxDepth {
		return Descriptor{}, Malformedf("nesting deeper than %d", maxDepth)
	}
	if r.off >= len(r.buf) {
		return Descriptor{}, Malformedf("truncated kind at offset %d", r.off)
	}
	kind := Kind(r.buf[r.off])
	r.off++
	if !kind.Valid() {
		return Descriptor{}, fmt.Errorf("%w: %w: %d", ErrMalformed, ErrUnknownKind, uint8(kind))
	}

	size, err := r.uvarint("size")
	if err != nil {
		return Descriptor{}, err
	}
	payloadLen, err := r.uvarint("payload length")
	if err != nil {
		return Descriptor{}, err
	}
	if payloadLen > uint64(len(r.buf)-r.off) {
		return Descriptor{}, Malformedf("%s payload length %d exceeds remaining %d bytes", kind, payloadLen, len(r.buf)-r.off)
	}
	raw := r.buf[r.off : r.off+int(payloadLen)]
	r.off += int(payloadLen)

	payload, err := decodePayload(kind, raw)
	if err != nil {
		return Descriptor{}, err
	}

	subCount, err := r.uvarint("sub-descriptor count")
	if err != nil {
		return Descriptor{}, err
	}
	// Every frame needs at least four bytes.
	if subCount > uint64(len(r.buf)-r.off)/4 {
		return Descriptor{}, Malformedf("sub-descriptor count %d exceeds remaining data", subCount)
	}

	d := Descriptor{Kind: kind, Payload: payload, Size: int(size)}
	if subCount > 0 {
		d.Sub = make([]Descriptor, subCount)
		for i := range d.Sub {
			if d.Sub[i], err = r.read(depth + 1); err != nil {
				return Descriptor{}, err
			}
		}
	}
	return d, nil
}

func decodeTree(buf []byte) (Descriptor, error) {
	r := &treeReader{buf: buf}
	d, err := r.read(0)
	if err != nil {
		return Descriptor{}, err
	}
	if r.off != len(buf) {
		return Descriptor{}, Malformedf("%d trailing bytes after descriptor tree", len(buf)-r.off)
	}
	return d, nil
}

func decodePayload(k Kind, raw []byte) (Payload, error) {
	switch k {
	case KindConstant:
		return unmarshalAs[Constant](k, raw)
	case KindArithmetic:
		return unmarshalAs[Arithmetic](k, raw)
	case KindGeometric:
		return unmarshalAs[Geometric](k, raw)
	case KindPeriodic:
		return unmarshalAs[Periodic](k, raw)
	case KindPolynomial:
		return unmarshalAs[Polynomial](k, raw)
	case KindRecursive:
		return unmarshalAs[Recursive](k, raw)
	case KindTokenDict:
		return unmarshalAs[TokenDict](k, raw)
	case KindTemplate:
		return unmarshalAs[Template](k, raw)
	case KindPredictive:
		return unmarshalAs[Predictive](k, raw)
	case KindMatch:
		return unmarshalAs[Match](k, raw)
	case KindChain:
		return unmarshalAs[Chain](k, raw)
	case KindSegmentIndex:
		return unmarshalAs[SegmentIndex](k, raw)
	case KindRaw:
		return unmarshalAs[Raw](k, raw)
	default:
		return nil, fmt.Errorf("%w: %w: %d", ErrMalformed, ErrUnknownKind, uint8(k))
	}
}

func unmarshalAs[T Payload](k Kind, raw []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, Malformedf("decode %s payload: %v", k, err)
	}
	return v, nil
}

// MarshalBinary encodes d as a standalone descriptor tree.
func (d Descriptor) MarshalBinary() ([]byte, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	return appendTree(nil, d)
}

// UnmarshalBinary decodes a tree produced by MarshalBinary.
func (d *Descriptor) UnmarshalBinary(data []byte) error {
	tmp, err := decodeTree(data)
	if err != nil {
		return err
	}
	if err := Validate(tmp); err != nil {
		return err
	}
	*d = tmp
	return nil
}
