package stack

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func fillUint16(s *Stack, values []uint16) {
	for i, v := range values {
		binary.LittleEndian.PutUint16(s.Data[2*i:], v)
	}
}

func fillFloat32(s *Stack, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(s.Data[4*i:], math.Float32bits(v))
	}
}

func TestScaleDimensions(t *testing.T) {
	cases := []struct {
		name   string
		dt     DType
		rank   int
		frames int
		h, w   int
		factor int
	}{
		{"2d uint8 x2", Uint8, 2, 1, 5, 7, 2},
		{"2d int16 x3", Int16, 2, 1, 4, 4, 3},
		{"2d float32 x4", Float32, 2, 1, 3, 2, 4},
		{"3d uint16 x2", Uint16, 3, 6, 4, 5, 2},
		{"3d int8 x4", Int8, 3, 2, 3, 3, 4},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := New(c.dt, c.rank, c.frames, c.h, c.w)
			out := in.Scale(c.factor)
			if out.Frames != in.Frames {
				t.Errorf("frames = %d, want %d", out.Frames, in.Frames)
			}
			if out.Height != c.h*c.factor || out.Width != c.w*c.factor {
				t.Errorf("dims = %dx%d, want %dx%d", out.Height, out.Width, c.h*c.factor, c.w*c.factor)
			}
			if out.Rank != in.Rank || out.DType != in.DType {
				t.Errorf("rank/dtype changed: %d/%v", out.Rank, out.DType)
			}
			want := in.Frames * c.h * c.factor * c.w * c.factor * c.dt.Size()
			if len(out.Data) != want {
				t.Errorf("data length = %d, want %d", len(out.Data), want)
			}
		})
	}
}

func TestScaleReplicatesBlocks(t *testing.T) {
	in := New(Uint16, 2, 1, 2, 3)
	fillUint16(in, []uint16{10, 20, 30, 40, 50, 60})

	out := in.Scale(3)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			got := out.sample(y*out.Width + x)
			want := in.sample((y/3)*in.Width + x/3)
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", y, x, got, want)
			}
		}
	}
}

func TestScalePerFrame(t *testing.T) {
	in := New(Int8, 3, 2, 2, 2)
	copy(in.Data, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	out := in.Scale(2)
	if out.Frames != 2 || out.Height != 4 || out.Width != 4 {
		t.Fatalf("scaled shape = %dx%dx%d", out.Frames, out.Height, out.Width)
	}
	for f := 0; f < 2; f++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				got := out.Data[f*16+y*4+x]
				want := in.Data[f*4+(y/2)*2+x/2]
				if got != want {
					t.Fatalf("frame %d pixel (%d,%d) = %d, want %d", f, y, x, got, want)
				}
			}
		}
	}
}

func TestScaleLeavesInputUntouched(t *testing.T) {
	in := New(Uint16, 2, 1, 3, 3)
	fillUint16(in, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9})
	before := append([]byte(nil), in.Data...)

	out := in.Scale(2)
	if !bytes.Equal(in.Data, before) {
		t.Fatal("scale mutated its input")
	}
	// output rows must be independent copies
	out.Data[0] = 0xFF
	if !bytes.Equal(in.Data, before) {
		t.Fatal("output aliases input data")
	}
}

func TestScalePreservesFloatBits(t *testing.T) {
	in := New(Float32, 2, 1, 1, 2)
	fillFloat32(in, []float32{-0.0, 1.5e-30})

	out := in.Scale(2)
	for x := 0; x < 4; x++ {
		got := binary.LittleEndian.Uint32(out.Data[4*x:])
		want := binary.LittleEndian.Uint32(in.Data[4*(x/2):])
		if got != want {
			t.Errorf("pixel %d bits = %08x, want %08x", x, got, want)
		}
	}
}

func TestFlipReversesRows(t *testing.T) {
	s := New(Uint8, 2, 1, 3, 2)
	copy(s.Data, []byte{1, 1, 2, 2, 3, 3})

	s.Flip()
	want := []byte{3, 3, 2, 2, 1, 1}
	if !bytes.Equal(s.Data, want) {
		t.Fatalf("flipped rows = %v, want %v", s.Data, want)
	}
}

func TestFlipReversesFrames(t *testing.T) {
	s := New(Uint8, 3, 3, 1, 2)
	copy(s.Data, []byte{1, 2, 3, 4, 5, 6})

	s.Flip()
	want := []byte{5, 6, 3, 4, 1, 2}
	if !bytes.Equal(s.Data, want) {
		t.Fatalf("flipped frames = %v, want %v", s.Data, want)
	}

	s.Flip()
	if !bytes.Equal(s.Data, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatal("double flip did not restore the original order")
	}
}

func TestCastUint8(t *testing.T) {
	t.Run("uint16 keeps low byte", func(t *testing.T) {
		s := New(Uint16, 2, 1, 1, 3)
		fillUint16(s, []uint16{0x0102, 0x00FF, 0xABCD})
		got := s.CastUint8()
		want := []byte{0x02, 0xFF, 0xCD}
		if !bytes.Equal(got.Data, want) {
			t.Errorf("cast = %v, want %v", got.Data, want)
		}
	})

	t.Run("int16 wraps", func(t *testing.T) {
		s := New(Int16, 2, 1, 1, 2)
		binary.LittleEndian.PutUint16(s.Data[0:], uint16(0xFFFF)) // -1
		binary.LittleEndian.PutUint16(s.Data[2:], uint16(0x0100)) // 256
		got := s.CastUint8()
		want := []byte{255, 0}
		if !bytes.Equal(got.Data, want) {
			t.Errorf("cast = %v, want %v", got.Data, want)
		}
	})

	t.Run("float32 truncates toward zero", func(t *testing.T) {
		s := New(Float32, 2, 1, 1, 4)
		fillFloat32(s, []float32{9.9, -1.5, 300, 0})
		got := s.CastUint8()
		want := []byte{9, 255, 44, 0}
		if !bytes.Equal(got.Data, want) {
			t.Errorf("cast = %v, want %v", got.Data, want)
		}
	})

	t.Run("uint8 passthrough", func(t *testing.T) {
		s := New(Uint8, 2, 1, 1, 2)
		if got := s.CastUint8(); got != s {
			t.Error("uint8 cast should return the receiver")
		}
	})
}

func TestSwapBytes(t *testing.T) {
	b2 := []byte{1, 2, 3, 4}
	SwapBytes(b2, 2)
	if !bytes.Equal(b2, []byte{2, 1, 4, 3}) {
		t.Errorf("16-bit swap = %v", b2)
	}

	b4 := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	SwapBytes(b4, 4)
	if !bytes.Equal(b4, []byte{4, 3, 2, 1, 8, 7, 6, 5}) {
		t.Errorf("32-bit swap = %v", b4)
	}
}

func TestMinMaxMeanRMS(t *testing.T) {
	s := New(Int16, 2, 1, 2, 2)
	for i, v := range []int16{-2, 0, 2, 4} {
		binary.LittleEndian.PutUint16(s.Data[2*i:], uint16(v))
	}

	min, max, mean, rms := s.MinMaxMeanRMS()
	if min != -2 || max != 4 || mean != 1 {
		t.Errorf("min/max/mean = %v/%v/%v, want -2/4/1", min, max, mean)
	}
	if math.Abs(rms-math.Sqrt(5)) > 1e-12 {
		t.Errorf("rms = %v, want sqrt(5)", rms)
	}
}
