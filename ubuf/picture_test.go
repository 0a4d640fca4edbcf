package ubuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/umem"
)

func newPictureMgr(t *testing.T, name string) *PictureMgr {
	f, err := LookupFormat(name)
	require.NoError(t, err)
	return NewPictureMgr(umem.NewDirect(), f, Margins{})
}

func TestPictureClearYUVLimitedRange(t *testing.T) {
	mgr := newPictureMgr(t, "yuv420p")
	pic, err := mgr.Alloc(4, 4)
	require.NoError(t, err)
	defer pic.Free()

	require.NoError(t, pic.Clear(Rect{SizeH: 4, SizeV: 4}, false))

	y, _, err := pic.ReadPlane("y", Rect{SizeH: 4, SizeV: 4})
	require.NoError(t, err)
	for _, b := range y {
		assert.EqualValues(t, 16, b)
	}
	pic.Unmap("y")

	u, _, err := pic.ReadPlane("u", Rect{SizeH: 4, SizeV: 4})
	require.NoError(t, err)
	for _, b := range u {
		assert.EqualValues(t, 128, b)
	}
	pic.Unmap("u")
}

func TestPictureClearYUVFullRange(t *testing.T) {
	mgr := newPictureMgr(t, "nv12")
	pic, err := mgr.Alloc(4, 4)
	require.NoError(t, err)
	defer pic.Free()

	require.NoError(t, pic.Clear(Rect{SizeH: 4, SizeV: 4}, true))

	y, _, err := pic.ReadPlane("y", Rect{SizeH: 4, SizeV: 4})
	require.NoError(t, err)
	for _, b := range y {
		assert.EqualValues(t, 0, b)
	}
	pic.Unmap("y")

	uv, _, err := pic.ReadPlane("uv", Rect{SizeH: 4, SizeV: 4})
	require.NoError(t, err)
	for _, b := range uv {
		assert.EqualValues(t, 128, b)
	}
	pic.Unmap("uv")
}

func TestPictureClearRGBA(t *testing.T) {
	mgr := newPictureMgr(t, "rgba")

	limited, err := mgr.Alloc(4, 4)
	require.NoError(t, err)
	defer limited.Free()
	require.NoError(t, limited.Clear(Rect{SizeH: 4, SizeV: 4}, false))
	data, _, err := limited.ReadPlane("rgb", Rect{SizeH: 4, SizeV: 4})
	require.NoError(t, err)
	for i := 0; i < len(data); i += 4 {
		assert.EqualValues(t, []byte{16, 16, 16, 0}, data[i:i+4])
	}
	limited.Unmap("rgb")

	full, err := mgr.Alloc(4, 4)
	require.NoError(t, err)
	defer full.Free()
	require.NoError(t, full.Clear(Rect{SizeH: 4, SizeV: 4}, true))
	data2, _, err := full.ReadPlane("rgb", Rect{SizeH: 4, SizeV: 4})
	require.NoError(t, err)
	for _, b := range data2 {
		assert.EqualValues(t, 0, b)
	}
	full.Unmap("rgb")
}

func TestPictureClearV210BitPattern(t *testing.T) {
	mgr := newPictureMgr(t, "v210")
	pic, err := mgr.Alloc(6, 2)
	require.NoError(t, err)
	defer pic.Free()

	require.NoError(t, pic.Clear(Rect{SizeH: 6, SizeV: 2}, true))

	data, stride, err := pic.ReadPlane("v210", Rect{SizeH: 6, SizeV: 2})
	require.NoError(t, err)
	defer pic.Unmap("v210")

	want := []byte{0x00, 0x02, 0x00, 0x20, 0x00, 0x00, 0x08, 0x00}
	for line := 0; line < len(data); line += stride {
		row := data[line : line+stride]
		for off := 0; off < len(row); off += 8 {
			assert.Equal(t, want, row[off:off+8])
		}
	}
}

func TestPictureWritableCopiesOnSharedDup(t *testing.T) {
	mgr := newPictureMgr(t, "yuv420p")
	pic, err := mgr.Alloc(4, 4)
	require.NoError(t, err)
	defer pic.Free()

	dup := pic.Dup().(*Picture)
	defer dup.Free()

	writable, err := dup.Writable()
	require.NoError(t, err)
	assert.NotSame(t, dup, writable)
	require.NoError(t, writable.Clear(Rect{SizeH: 4, SizeV: 4}, true))
	writable.Free()
}

func TestPictureResizeRejectsPastMargins(t *testing.T) {
	mgr := NewPictureMgr(umem.NewDirect(), mustFormat(t, "yuv420p"), Margins{HAppend: 2, VAppend: 2})
	pic, err := mgr.Alloc(4, 4)
	require.NoError(t, err)
	defer pic.Free()

	require.NoError(t, pic.Resize(6, 6, 0, 0))
	assert.Error(t, pic.Resize(100, 100, 0, 0))
}

func mustFormat(t *testing.T, name string) Format {
	f, err := LookupFormat(name)
	require.NoError(t, err)
	return f
}
