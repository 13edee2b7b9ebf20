package stack

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType identifies the numeric type of one pixel sample.
type DType int

const (
	Int8 DType = iota
	Uint8
	Int16
	Uint16
	Float32
)

// Size returns the sample width in bytes.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Float32:
		return 4
	}
	return 0
}

func (d DType) String() string {
	switch d {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Float32:
		return "float32"
	}
	return fmt.Sprintf("dtype(%d)", int(d))
}

// Stack is a single 2-D image or a stack of equally sized 2-D frames
// with one numeric sample per pixel. Samples live in Data
// little-endian, frame by frame, row-major within a frame. Rank 2
// always has Frames == 1.
type Stack struct {
	DType  DType
	Rank   int
	Frames int
	Height int
	Width  int
	Data   []byte
}

// New allocates a zeroed stack. Rank 2 forces the frame count to 1.
func New(dt DType, rank, frames, height, width int) *Stack {
	if rank == 2 {
		frames = 1
	}
	return &Stack{
		DType:  dt,
		Rank:   rank,
		Frames: frames,
		Height: height,
		Width:  width,
		Data:   make([]byte, frames*height*width*dt.Size()),
	}
}

// RowBytes is the byte length of one pixel row.
func (s *Stack) RowBytes() int { return s.Width * s.DType.Size() }

// FrameBytes is the byte length of one frame.
func (s *Stack) FrameBytes() int { return s.Height * s.Width * s.DType.Size() }

// Samples is the total sample count across all frames.
func (s *Stack) Samples() int { return s.Frames * s.Height * s.Width }

func (s *Stack) sample(i int) float64 {
	switch s.DType {
	case Int8:
		return float64(int8(s.Data[i]))
	case Uint8:
		return float64(s.Data[i])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(s.Data[2*i:])))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(s.Data[2*i:]))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(s.Data[4*i:])))
	}
	return 0
}

// SwapBytes reverses each size-byte sample group in place, converting
// between big- and little-endian sample layouts.
func SwapBytes(data []byte, size int) {
	switch size {
	case 2:
		for i := 0; i+1 < len(data); i += 2 {
			data[i], data[i+1] = data[i+1], data[i]
		}
	case 4:
		for i := 0; i+3 < len(data); i += 4 {
			data[i], data[i+3] = data[i+3], data[i]
			data[i+1], data[i+2] = data[i+2], data[i+1]
		}
	}
}

// MinMaxMeanRMS computes the density statistics an MRC header records.
// RMS is the standard deviation from the mean.
func (s *Stack) MinMaxMeanRMS() (min, max, mean, rms float64) {
	n := s.Samples()
	if n == 0 {
		return
	}
	min = math.Inf(1)
	max = math.Inf(-1)
	var sum float64
	for i := 0; i < n; i++ {
		v := s.sample(i)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean = sum / float64(n)
	var sumSq float64
	for i := 0; i < n; i++ {
		d := s.sample(i) - mean
		sumSq += d * d
	}
	rms = math.Sqrt(sumSq / float64(n))
	return
}
