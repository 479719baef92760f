package genpress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seiflotfy/genpress/descriptor"
)

// ErrRange indicates a partial-generation range outside [0, total].
var ErrRange = errors.New("range out of bounds")

// IndexEntry is one independently regenerable range of the input.
type IndexEntry struct {
	Key          string
	Offset       int
	Length       int
	Descriptor   descriptor.Descriptor
	Dependencies []int // reserved; segments never reference each other
}

// SegmentIndex partitions [0, Total) into contiguous entries.
type SegmentIndex struct {
	Total       int
	SegmentSize int
	Entries     []IndexEntry
	// Error is the summed regeneration error of all entries.
	Error float64
	// Exact reports whether every entry regenerates its segment exactly.
	Exact bool
}

// segmentKey is the hex xxhash of the segment values, little-endian.
func segmentKey(vals []int64) string {
	h := xxhash.New()
	var buf [8]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// BuildIndex splits data into segments of segmentSize values and compresses
// each one independently. A non-positive segmentSize yields a single
// segment.
func (e *Engine) BuildIndex(data []int64, segmentSize int) *SegmentIndex {
	if segmentSize <= 0 {
		segmentSize = max(len(data), 1)
	}
	count := (len(data) + segmentSize - 1) / segmentSize
	idx := &SegmentIndex{
		Total:       len(data),
		SegmentSize: segmentSize,
		Entries:     make([]IndexEntry, count),
	}
	errs := make([]float64, count)
	exact := make([]bool, count)

	build := func(i int) {
		start := i * segmentSize
		end := min(start+segmentSize, len(data))
		vals := data[start:end]
		best := e.compressFlat(vals)
		idx.Entries[i] = IndexEntry{
			Key:        segmentKey(vals),
			Offset:     start,
			Length:     end - start,
			Descriptor: best.desc,
		}
		errs[i] = best.err
		exact[i] = best.exact()
	}

	if e.cfg.Parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(e.cfg.Parallelism)
		for i := 0; i < count; i++ {
			i := i
			g.Go(func() error {
				build(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := 0; i < count; i++ {
			build(i)
		}
	}

	idx.Exact = true
	for i, err := range errs {
		idx.Error += err
		idx.Exact = idx.Exact && exact[i]
	}
	e.logger.Info("segment index built",
		zap.Int("total", idx.Total),
		zap.Int("segments", count),
		zap.Int("segment_size", segmentSize))
	return idx
}

// Descriptor converts the index into a segment_index descriptor. Its size
// is the sum of the entry sizes plus one unit of framing per entry.
func (idx *SegmentIndex) Descriptor() descriptor.Descriptor {
	p := descriptor.SegmentIndex{Total: idx.Total, Segments: make([]descriptor.Segment, len(idx.Entries))}
	subs := make([]descriptor.Descriptor, len(idx.Entries))
	size := 0
	for i, en := range idx.Entries {
		p.Segments[i] = descriptor.Segment{
			Key:          en.Key,
			Offset:       en.Offset,
			Length:       en.Length,
			Dependencies: en.Dependencies,
		}
		subs[i] = en.Descriptor
		size += en.Descriptor.Size + 1
	}
	d := descriptor.New(p, size)
	d.Sub = subs
	return d
}

// SegmentIndexFrom rebuilds an index from a segment_index descriptor.
func SegmentIndexFrom(d descriptor.Descriptor) (*SegmentIndex, error) {
	if err := descriptor.Validate(d); err != nil {
		return nil, err
	}
	p, ok := d.Payload.(descriptor.SegmentIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a segment index", ErrMalformedDescriptor, d.Kind)
	}
	idx := &SegmentIndex{Total: p.Total, Entries: make([]IndexEntry, len(p.Segments))}
	for i, s := range p.Segments {
		idx.Entries[i] = IndexEntry{
			Key:          s.Key,
			Offset:       s.Offset,
			Length:       s.Length,
			Descriptor:   d.Sub[i],
			Dependencies: s.Dependencies,
		}
	}
	if len(idx.Entries) > 0 {
		idx.SegmentSize = idx.Entries[0].Length
	}
	return idx, nil
}

// Generate regenerates the whole indexed sequence.
func (idx *SegmentIndex) Generate() ([]int64, error) {
	return idx.PartialGenerate(0, idx.Total)
}

// PartialGenerate regenerates [start, end) touching only the overlapping
// segments.
func (idx *SegmentIndex) PartialGenerate(start, end int) ([]int64, error) {
	return idx.partial(start, end, func(en IndexEntry) ([]int64, error) {
		return Generate(en.Descriptor, en.Length)
	})
}

func (idx *SegmentIndex) partial(start, end int, regen func(IndexEntry) ([]int64, error)) ([]int64, error) {
	if start < 0 || end < start || end > idx.Total {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrRange, start, end, idx.Total)
	}
	out := make([]int64, 0, end-start)
	first := sort.Search(len(idx.Entries), func(i int) bool {
		en := idx.Entries[i]
		return en.Offset+en.Length > start
	})
	for i := first; i < len(idx.Entries) && idx.Entries[i].Offset < end; i++ {
		en := idx.Entries[i]
		vals, err := regen(en)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		lo := max(start-en.Offset, 0)
		hi := min(end-en.Offset, en.Length)
		out = append(out, vals[lo:hi]...)
	}
	return out, nil
}

// SegmentReader serves ranges of an index and keeps recently regenerated
// segments in an LRU cache keyed by segment key.
type SegmentReader struct {
	idx   *SegmentIndex
	cache *lru.Cache[string, []int64]
}

// NewSegmentReader returns a reader caching up to size segments.
func NewSegmentReader(idx *SegmentIndex, size int) (*SegmentReader, error) {
	if size <= 0 {
		size = DefaultSegmentCache
	}
	cache, err := lru.New[string, []int64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment cache: %w", err)
	}
	return &SegmentReader{idx: idx, cache: cache}, nil
}

// ReadRange returns the values in [start, end).
func (r *SegmentReader) ReadRange(start, end int) ([]int64, error) {
	return r.idx.partial(start, end, r.segment)
}

// Cached reports how many segments are cached.
func (r *SegmentReader) Cached() int {
	return r.cache.Len()
}

func (r *SegmentReader) segment(en IndexEntry) ([]int64, error) {
	if vals, ok := r.cache.Get(en.Key); ok && len(vals) == en.Length {
		return vals, nil
	}
	vals, err := Generate(en.Descriptor, en.Length)
	if err != nil {
		return nil, err
	}
	r.cache.Add(en.Key, vals)
	return vals, nil
}
