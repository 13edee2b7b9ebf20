package stack

import (
	"encoding/binary"
	"math"
)

// Scale replicates every pixel factor times along both spatial axes,
// frame by frame. A source pixel at (y, x) becomes a constant
// factor*factor block at (y*factor, x*factor). The receiver is left
// untouched; the result owns a fresh buffer.
func (s *Stack) Scale(factor int) *Stack {
	out := New(s.DType, s.Rank, s.Frames, s.Height*factor, s.Width*factor)
	sz := s.DType.Size()
	srcRow := s.RowBytes()
	dstRow := out.RowBytes()
	for f := 0; f < s.Frames; f++ {
		srcFrame := s.Data[f*s.FrameBytes():]
		dstFrame := out.Data[f*out.FrameBytes():]
		for y := 0; y < s.Height; y++ {
			src := srcFrame[y*srcRow : y*srcRow+srcRow]
			dst := dstFrame[y*factor*dstRow : y*factor*dstRow+dstRow]
			for x := 0; x < s.Width; x++ {
				px := src[x*sz : x*sz+sz]
				for k := 0; k < factor; k++ {
					copy(dst[(x*factor+k)*sz:], px)
				}
			}
			// replicate the expanded row for the remaining factor-1 rows
			for k := 1; k < factor; k++ {
				copy(dstFrame[(y*factor+k)*dstRow:(y*factor+k)*dstRow+dstRow], dst)
			}
		}
	}
	return out
}

// Flip reverses the leading axis in place: frame order for rank-3
// stacks, row order for 2-D images.
func (s *Stack) Flip() {
	block := s.RowBytes()
	if s.Rank == 3 {
		block = s.FrameBytes()
	}
	if block == 0 {
		return
	}
	n := len(s.Data) / block
	tmp := make([]byte, block)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		a := s.Data[i*block : (i+1)*block]
		b := s.Data[j*block : (j+1)*block]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// CastUint8 converts samples to uint8 with plain truncating
// conversions: integer types keep their low byte, floats are truncated
// toward zero first. Returns the receiver when the data is already
// uint8.
func (s *Stack) CastUint8() *Stack {
	if s.DType == Uint8 {
		return s
	}
	out := New(Uint8, s.Rank, s.Frames, s.Height, s.Width)
	n := s.Samples()
	switch s.DType {
	case Int8:
		copy(out.Data, s.Data)
	case Int16, Uint16:
		for i := 0; i < n; i++ {
			out.Data[i] = s.Data[2*i]
		}
	case Float32:
		for i := 0; i < n; i++ {
			v := math.Float32frombits(binary.LittleEndian.Uint32(s.Data[4*i:]))
			out.Data[i] = uint8(int64(v))
		}
	}
	return out
}
