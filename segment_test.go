package genpress

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiflotfy/genpress/descriptor"
)

func rangeData(n int) []int64 {
	data := make([]int64, n)
	for i := range data {
		data[i] = int64((i*i + 3*i) % 251)
	}
	return data
}

func TestPartialGenerateSlice(t *testing.T) {
	data := rangeData(1000)
	idx := New().BuildIndex(data, 100)
	require.Len(t, idx.Entries, 10)

	got, err := idx.PartialGenerate(250, 260)
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, data[250:260], got)
}

func TestPartialGenerateMatchesFull(t *testing.T) {
	data := rangeData(1000)
	idx := New().BuildIndex(data, 64)

	full, err := idx.Generate()
	require.NoError(t, err)
	require.Equal(t, data, full)

	ranges := [][2]int{{0, 0}, {0, 1000}, {63, 65}, {99, 101}, {640, 641}, {999, 1000}, {1000, 1000}, {17, 900}}
	for _, r := range ranges {
		got, err := idx.PartialGenerate(r[0], r[1])
		require.NoError(t, err, "%v", r)
		assert.Equal(t, full[r[0]:r[1]], got, "%v", r)
	}
}

func TestPartialGenerateOutOfRange(t *testing.T) {
	idx := New().BuildIndex(rangeData(50), 10)
	for _, r := range [][2]int{{-1, 5}, {6, 5}, {0, 51}} {
		_, err := idx.PartialGenerate(r[0], r[1])
		assert.ErrorIs(t, err, ErrRange, "%v", r)
	}
}

func TestBuildIndexLayout(t *testing.T) {
	data := rangeData(250)
	idx := New().BuildIndex(data, 100)
	require.Len(t, idx.Entries, 3)

	next := 0
	for _, en := range idx.Entries {
		assert.Equal(t, next, en.Offset)
		assert.Empty(t, en.Dependencies)
		assert.NotEmpty(t, en.Key)
		next += en.Length
	}
	assert.Equal(t, 250, next)
	assert.Equal(t, 50, idx.Entries[2].Length)
	assert.Zero(t, idx.Error)

	empty := New().BuildIndex(nil, 100)
	assert.Empty(t, empty.Entries)
	got, err := empty.PartialGenerate(0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSegmentKeysFollowContent(t *testing.T) {
	data := make([]int64, 40)
	for i := range data {
		data[i] = int64(i % 10)
	}
	idx := New().BuildIndex(data, 10)
	for _, en := range idx.Entries[1:] {
		assert.Equal(t, idx.Entries[0].Key, en.Key)
	}
	assert.NotEqual(t, segmentKey([]int64{1, 2}), segmentKey([]int64{2, 1}))
}

func TestSegmentIndexDescriptorRoundTrip(t *testing.T) {
	data := rangeData(300)
	idx := New().BuildIndex(data, 128)

	d := idx.Descriptor()
	require.Equal(t, descriptor.KindSegmentIndex, d.Kind)
	require.NoError(t, descriptor.Validate(d))
	requireRoundTrip(t, data, d)

	back, err := SegmentIndexFrom(d)
	require.NoError(t, err)
	assert.Equal(t, 128, back.SegmentSize)
	got, err := back.PartialGenerate(120, 140)
	require.NoError(t, err)
	assert.Equal(t, data[120:140], got)

	_, err = SegmentIndexFrom(descriptor.New(descriptor.Constant{Value: 1}, 2))
	assert.ErrorIs(t, err, ErrMalformedDescriptor)
}

func TestBuildIndexParallelMatchesSequential(t *testing.T) {
	data := rangeData(700)
	seq := New().BuildIndex(data, 50).Descriptor()
	par := New(WithParallelism(4)).BuildIndex(data, 50).Descriptor()
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("parallel index differs (-seq +par):\n%s", diff)
	}
}

func TestCompressAutoSegments(t *testing.T) {
	data := rangeData(500)
	res := New(WithSegmentSize(100)).Compress(data)
	require.True(t, res.Exact)
	require.Equal(t, descriptor.KindSegmentIndex, res.Descriptor.Kind)
	requireRoundTrip(t, data, res.Descriptor)

	info := New(WithSegmentSize(100)).CompressInfo(data)
	assert.Equal(t, 5, info.Segments)

	// Inputs within one segment are not split.
	small := New(WithSegmentSize(100)).Compress(data[:80])
	assert.NotEqual(t, descriptor.KindSegmentIndex, small.Descriptor.Kind)
}

func TestSegmentReader(t *testing.T) {
	data := rangeData(400)
	idx := New().BuildIndex(data, 100)
	r, err := NewSegmentReader(idx, 2)
	require.NoError(t, err)

	got, err := r.ReadRange(150, 250)
	require.NoError(t, err)
	assert.Equal(t, data[150:250], got)
	assert.Equal(t, 2, r.Cached())

	// Mutating a result must not corrupt the cache.
	got[0] = -1
	again, err := r.ReadRange(150, 160)
	require.NoError(t, err)
	assert.Equal(t, data[150:160], again)

	_, err = r.ReadRange(0, 400)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Cached())

	_, err = r.ReadRange(10, 5)
	assert.ErrorIs(t, err, ErrRange)
}
