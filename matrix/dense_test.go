package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDenseFromData(t *testing.T) {
	d, err := NewDenseFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows())
	assert.Equal(t, 3, d.Dims())
	assert.Equal(t, 6, d.Size())
	assert.Equal(t, []float32{4, 5, 6}, d.Row(1))

	_, err = NewDenseFromData(2, 3, []float32{1, 2})
	assert.Error(t, err)
}

func TestSetRow(t *testing.T) {
	d := NewDense(2, 2)
	require.NoError(t, d.SetRow(1, []float32{7, 8}))
	assert.Equal(t, []float32{0, 0, 7, 8}, d.Data())

	assert.Error(t, d.SetRow(0, []float32{1}))
}

func TestCloneIsDeep(t *testing.T) {
	d := NewDense(1, 2)
	c := d.Clone()
	c.Row(0)[0] = 42
	assert.Equal(t, float32(0), d.Row(0)[0])
}

func TestResizeCopyGrow(t *testing.T) {
	d, err := NewDenseFromData(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	grown := d.Resize(3, 2, false)
	assert.Equal(t, 3, grown.Rows())
	assert.Equal(t, []float32{1, 2, 3, 4, 0, 0}, grown.Data())
	// Original untouched.
	assert.Equal(t, 2, d.Rows())

	shrunk := grown.Resize(1, 2, false)
	assert.Equal(t, []float32{1, 2}, shrunk.Data())
}

func TestResizeDimsChange(t *testing.T) {
	d, err := NewDenseFromData(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	wide := d.Resize(2, 3, false)
	assert.Equal(t, []float32{1, 2, 0, 3, 4, 0}, wide.Data())

	narrow := d.Resize(2, 1, false)
	assert.Equal(t, []float32{1, 3}, narrow.Data())
}

func TestResizeSameShape(t *testing.T) {
	d, err := NewDenseFromData(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	// Non-in-place always yields an independent buffer, even for a no-op
	// shape.
	out := d.Resize(2, 2, false)
	assert.Equal(t, d.Data(), out.Data())
	out.Row(0)[0] = 9
	assert.Equal(t, float32(1), d.Row(0)[0])

	assert.Same(t, d, d.Resize(2, 2, true))
}

func TestResizeInPlaceShrinkGrow(t *testing.T) {
	d, err := NewDenseFromData(3, 2, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	out := d.Resize(2, 2, true)
	assert.Same(t, d, out)
	assert.Equal(t, []float32{1, 2, 3, 4}, d.Data())

	// Growing back within capacity zero-fills the tail rather than
	// resurrecting old data.
	d.Resize(3, 2, true)
	assert.Equal(t, []float32{1, 2, 3, 4, 0, 0}, d.Data())
}

func TestSlice(t *testing.T) {
	d, err := NewDenseFromData(3, 2, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	s := d.Slice(1, 3)
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, []float32{3, 4}, s.Row(0))
	// Views alias the parent.
	s.Row(0)[0] = 9
	assert.Equal(t, float32(9), d.Row(1)[0])
}
