// {{{ Copyright (c) Upipe Authors, 2024
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package ubuf

import "fmt"

// Kind drives how Clear computes the neutral fill value for a format's
// planes; it is a much smaller axis of variation than the raw plane
// geometry, which is why Clear switches on it instead of on the format name.
type Kind int

const (
	// KindYUV is planar or semi-planar YUV (yuv420p, nv12, p010le, ...).
	KindYUV Kind = iota
	// KindRGB is packed RGB/RGBA/BGRA in any channel order.
	KindRGB
	// KindGray is a single luma plane with no chroma.
	KindGray
	// KindMono is 1-bit-per-pixel packed black/white.
	KindMono
	// KindGBRP is planar RGB (separate full-resolution G/B/R planes).
	KindGBRP
	// KindV210 is the packed 10-bit 4:2:2 "v210" layout, which clears to a
	// specific repeating byte pattern rather than a per-plane scalar.
	KindV210
)

// PlaneFormat describes the geometry of one plane of a picture format.
type PlaneFormat struct {
	Chroma          string
	HSub, VSub      int
	MacropixelSize  int // bytes per macropixel on this plane
	InterleavedAlts int // number of components packed per macropixel sample (0 for plain planar planes, 2 for NV/P0xx chroma, bytes per pixel for packed RGB, 4 for yuyv/uyvy, 6 for v210)
}

// Format is a named picture format: its macropixel size, per-plane geometry,
// bit depth, and the Kind that determines its neutral clear value.
type Format struct {
	Name       string
	Macropixel int
	Planes     []PlaneFormat
	BitDepth   int // bits used per sample; 8, 10, 12, or 16 (1 for the mono formats)
	LittleEndian bool
	Kind       Kind
	HasAlpha   bool
}

var formatRegistry = map[string]Format{}

func register(f Format) {
	formatRegistry[f.Name] = f
}

// LookupFormat returns the registered Format for name, or an error if the
// name is not one of the chroma formats listed in spec.md §6.
func LookupFormat(name string) (Format, error) {
	f, ok := formatRegistry[name]
	if !ok {
		return Format{}, fmt.Errorf("ubuf: %w: %q", ErrChromaUnknown, name)
	}
	return f, nil
}

func planarYUV(name string, hsub, vsub, bitDepth int, alpha bool) Format {
	bps := 1
	if bitDepth > 8 {
		bps = 2
	}
	planes := []PlaneFormat{
		{Chroma: "y", HSub: 1, VSub: 1, MacropixelSize: bps},
		{Chroma: "u", HSub: hsub, VSub: vsub, MacropixelSize: bps},
		{Chroma: "v", HSub: hsub, VSub: vsub, MacropixelSize: bps},
	}
	if alpha {
		planes = append(planes, PlaneFormat{Chroma: "a", HSub: 1, VSub: 1, MacropixelSize: bps})
	}
	return Format{Name: name, Macropixel: 1, Planes: planes, BitDepth: bitDepth, LittleEndian: true, Kind: KindYUV, HasAlpha: alpha}
}

func semiPlanarYUV(name string, hsub, vsub, bitDepth int) Format {
	bps := 1
	if bitDepth > 8 {
		bps = 2
	}
	return Format{
		Name:       name,
		Macropixel: 1,
		BitDepth:   bitDepth,
		LittleEndian: true,
		Kind:       KindYUV,
		Planes: []PlaneFormat{
			{Chroma: "y", HSub: 1, VSub: 1, MacropixelSize: bps},
			{Chroma: "uv", HSub: hsub, VSub: vsub, MacropixelSize: bps * 2, InterleavedAlts: 2},
		},
	}
}

func packedRGB(name string, bytesPerPixel int, hasAlpha bool, le bool) Format {
	return Format{
		Name: name, Macropixel: 1, BitDepth: 8, LittleEndian: le, Kind: KindRGB, HasAlpha: hasAlpha,
		Planes: []PlaneFormat{{Chroma: "rgb", HSub: 1, VSub: 1, MacropixelSize: bytesPerPixel, InterleavedAlts: bytesPerPixel}},
	}
}

func init() {
	for _, bd := range []int{8, 10, 12, 16} {
		register(planarYUV(fmt.Sprintf("yuv420p%s", bitSuffix(bd)), 2, 2, bd, false))
		register(planarYUV(fmt.Sprintf("yuv422p%s", bitSuffix(bd)), 2, 1, bd, false))
		register(planarYUV(fmt.Sprintf("yuv444p%s", bitSuffix(bd)), 1, 1, bd, false))
		register(planarYUV(fmt.Sprintf("yuv420p%sa", bitSuffix(bd)), 2, 2, bd, true))
		register(planarYUV(fmt.Sprintf("yuv422p%sa", bitSuffix(bd)), 2, 1, bd, true))
		register(planarYUV(fmt.Sprintf("yuv444p%sa", bitSuffix(bd)), 1, 1, bd, true))
	}
	register(semiPlanarYUV("nv12", 2, 2, 8))
	register(semiPlanarYUV("nv16", 2, 1, 8))
	register(semiPlanarYUV("nv24", 1, 1, 8))
	register(semiPlanarYUV("p010le", 2, 2, 10))

	register(Format{
		Name: "yuyv422", Macropixel: 2, BitDepth: 8, Kind: KindYUV,
		Planes: []PlaneFormat{{Chroma: "yuyv", HSub: 1, VSub: 1, MacropixelSize: 4, InterleavedAlts: 4}},
	})
	register(Format{
		Name: "uyvy422", Macropixel: 2, BitDepth: 8, Kind: KindYUV,
		Planes: []PlaneFormat{{Chroma: "uyvy", HSub: 1, VSub: 1, MacropixelSize: 4, InterleavedAlts: 4}},
	})

	register(packedRGB("rgb24", 3, false, true))
	register(packedRGB("bgr24", 3, false, true))
	register(packedRGB("rgb565", 2, false, true))
	register(packedRGB("rgb0", 4, false, true))
	register(packedRGB("0rgb", 4, false, true))
	register(packedRGB("argb", 4, true, true))
	register(packedRGB("rgba", 4, true, true))
	register(packedRGB("abgr", 4, true, true))
	register(packedRGB("bgra", 4, true, true))
	register(packedRGB("rgba64le", 8, true, true))
	register(packedRGB("rgba64be", 8, true, false))

	register(Format{
		Name: "gray8", Macropixel: 1, BitDepth: 8, Kind: KindGray,
		Planes: []PlaneFormat{{Chroma: "y", HSub: 1, VSub: 1, MacropixelSize: 1}},
	})
	register(Format{
		Name: "monoblack", Macropixel: 8, BitDepth: 1, Kind: KindMono,
		Planes: []PlaneFormat{{Chroma: "y1", HSub: 1, VSub: 1, MacropixelSize: 1}},
	})
	register(Format{
		Name: "monowhite", Macropixel: 8, BitDepth: 1, Kind: KindMono,
		Planes: []PlaneFormat{{Chroma: "y1", HSub: 1, VSub: 1, MacropixelSize: 1}},
	})
	register(Format{
		Name: "gbrp", Macropixel: 1, BitDepth: 8, Kind: KindGBRP,
		Planes: []PlaneFormat{
			{Chroma: "g", HSub: 1, VSub: 1, MacropixelSize: 1},
			{Chroma: "b", HSub: 1, VSub: 1, MacropixelSize: 1},
			{Chroma: "r", HSub: 1, VSub: 1, MacropixelSize: 1},
		},
	})
	register(Format{
		Name: "v210", Macropixel: 6, BitDepth: 10, Kind: KindV210, LittleEndian: true,
		Planes: []PlaneFormat{{Chroma: "v210", HSub: 1, VSub: 1, MacropixelSize: 16, InterleavedAlts: 6}},
	})
}

func bitSuffix(bd int) string {
	if bd == 8 {
		return ""
	}
	return fmt.Sprintf("%dle", bd)
}
