package tiffstack

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/rbs-sci/PASR/contracts"
	"github.com/rbs-sci/PASR/stack"
	"github.com/rbs-sci/PASR/tifflzw"
)

// WriteOptions control the container side of a write. Compression
// selects the strip codec; XDPI/YDPI, when both positive, are recorded
// as the pixel density in inches on every page.
type WriteOptions struct {
	Compression contracts.Compression
	XDPI, YDPI  float64
}

// classic TIFF offsets are 32-bit
const classicTIFFLimit = int64(^uint32(0))

type countingWriter struct {
	w      io.Writer
	offset int64
	err    error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.offset += int64(n)
	cw.err = err
	return n, err
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte // little-endian payload; inline when it fits 4 bytes
}

// Write encodes s to path as a little-endian TIFF, one page per frame,
// replacing any existing file.
func Write(path string, s *stack.Stack, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := encode(f, s, opts); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

func encode(ws io.WriteSeeker, s *stack.Stack, opts WriteOptions) error {
	if s.Frames < 1 || s.Height < 1 || s.Width < 1 {
		return errors.New("empty stack")
	}
	if _, err := compressionTag(opts.Compression); err != nil {
		return err
	}

	rps := stripTargetBytes / s.RowBytes()
	if rps < 1 {
		rps = 1
	}
	if rps > s.Height {
		rps = s.Height
	}
	strips := (s.Height + rps - 1) / rps

	bw := bufio.NewWriterSize(ws, 8*1024*1024)
	cw := &countingWriter{w: bw}

	// header with a placeholder first-IFD offset, patched at the end
	cw.Write([]byte{'I', 'I', 42, 0, 0, 0, 0, 0})

	// strip payloads for every frame, word aligned
	stripOffsets := make([][]uint32, s.Frames)
	stripCounts := make([][]uint32, s.Frames)
	for fr := 0; fr < s.Frames; fr++ {
		frame := s.Data[fr*s.FrameBytes() : (fr+1)*s.FrameBytes()]
		stripOffsets[fr] = make([]uint32, strips)
		stripCounts[fr] = make([]uint32, strips)
		for i := 0; i < strips; i++ {
			lo := i * rps * s.RowBytes()
			hi := lo + rps*s.RowBytes()
			if hi > len(frame) {
				hi = len(frame)
			}
			packed, err := compressStrip(frame[lo:hi], opts.Compression)
			if err != nil {
				return err
			}
			if cw.offset%2 == 1 {
				cw.Write([]byte{0})
			}
			if cw.offset > classicTIFFLimit-int64(len(packed)) {
				return errors.New("stack too large for a classic TIFF file")
			}
			stripOffsets[fr][i] = uint32(cw.offset)
			stripCounts[fr][i] = uint32(len(packed))
			cw.Write(packed)
		}
	}
	if cw.offset%2 == 1 {
		cw.Write([]byte{0})
	}
	if cw.err != nil {
		return errors.Wrap(cw.err, "writing strip data")
	}

	// contiguous IFD chain
	firstIFD := cw.offset
	for fr := 0; fr < s.Frames; fr++ {
		entries := pageEntries(s, opts, stripOffsets[fr], stripCounts[fr], rps)
		size := blockSize(entries)
		if cw.offset > classicTIFFLimit-size {
			return errors.New("stack too large for a classic TIFF file")
		}
		next := uint32(0)
		if fr < s.Frames-1 {
			next = uint32(cw.offset + size)
		}
		writeIFD(cw, entries, next)
	}
	if cw.err != nil {
		return errors.Wrap(cw.err, "writing image directories")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing output")
	}

	if _, err := ws.Seek(4, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking to header")
	}
	var first [4]byte
	binary.LittleEndian.PutUint32(first[:], uint32(firstIFD))
	if _, err := ws.Write(first[:]); err != nil {
		return errors.Wrap(err, "patching first IFD offset")
	}
	return nil
}

func pageEntries(s *stack.Stack, opts WriteOptions, offsets, counts []uint32, rps int) []ifdEntry {
	comp, _ := compressionTag(opts.Compression)
	entries := []ifdEntry{
		longEntry(tagImageWidth, uint32(s.Width)),
		longEntry(tagImageLength, uint32(s.Height)),
		shortEntry(tagBitsPerSample, uint16(8*s.DType.Size())),
		shortEntry(tagCompression, comp),
		shortEntry(tagPhotometric, 1), // black is zero
		longArrayEntry(tagStripOffsets, offsets),
		shortEntry(tagSamplesPerPixel, 1),
		longEntry(tagRowsPerStrip, uint32(rps)),
		longArrayEntry(tagStripByteCounts, counts),
	}
	if opts.XDPI > 0 && opts.YDPI > 0 {
		xn, xd := rationalFor(opts.XDPI)
		yn, yd := rationalFor(opts.YDPI)
		entries = append(entries,
			rationalEntry(tagXResolution, xn, xd),
			rationalEntry(tagYResolution, yn, yd),
			shortEntry(tagResolutionUnit, 2), // inches
		)
	}
	entries = append(entries, shortEntry(tagSampleFormat, sampleFormatFor(s.DType)))
	return entries
}

func sampleFormatFor(dt stack.DType) uint16 {
	switch dt {
	case stack.Int8, stack.Int16:
		return sampleFormatInt
	case stack.Float32:
		return sampleFormatFloat
	}
	return sampleFormatUint
}

func compressionTag(c contracts.Compression) (uint16, error) {
	switch c {
	case contracts.CompressionLZW:
		return compressionLZW, nil
	case contracts.CompressionZlib:
		return compressionDeflate, nil
	}
	return 0, errors.Errorf("unsupported TIFF compression %q", string(c))
}

func compressStrip(raw []byte, c contracts.Compression) ([]byte, error) {
	switch c {
	case contracts.CompressionLZW:
		return tifflzw.Encode(raw), nil
	case contracts.CompressionZlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			zw.Close()
			return nil, errors.Wrap(err, "deflating strip")
		}
		if err := zw.Close(); err != nil {
			return nil, errors.Wrap(err, "deflating strip")
		}
		return buf.Bytes(), nil
	}
	return nil, errors.Errorf("unsupported TIFF compression %q", string(c))
}

// blockSize is the byte length of one IFD block with its out-of-line
// values.
func blockSize(entries []ifdEntry) int64 {
	size := int64(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.value) > 4 {
			size += int64(len(e.value))
		}
	}
	return size
}

func writeIFD(cw *countingWriter, entries []ifdEntry, next uint32) {
	blobOff := uint32(cw.offset) + uint32(2+12*len(entries)+4)
	binary.Write(cw, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(cw, binary.LittleEndian, e.tag)
		binary.Write(cw, binary.LittleEndian, e.typ)
		binary.Write(cw, binary.LittleEndian, e.count)
		if len(e.value) <= 4 {
			var v [4]byte
			copy(v[:], e.value)
			cw.Write(v[:])
		} else {
			binary.Write(cw, binary.LittleEndian, blobOff)
			blobOff += uint32(len(e.value))
		}
	}
	binary.Write(cw, binary.LittleEndian, next)
	for _, e := range entries {
		if len(e.value) > 4 {
			cw.Write(e.value)
		}
	}
}

func shortEntry(tag, v uint16) ifdEntry {
	value := make([]byte, 2)
	binary.LittleEndian.PutUint16(value, v)
	return ifdEntry{tag: tag, typ: typeShort, count: 1, value: value}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, v)
	return ifdEntry{tag: tag, typ: typeLong, count: 1, value: value}
}

func longArrayEntry(tag uint16, vals []uint32) ifdEntry {
	value := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(value[4*i:], v)
	}
	return ifdEntry{tag: tag, typ: typeLong, count: uint32(len(vals)), value: value}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	value := make([]byte, 8)
	binary.LittleEndian.PutUint32(value, num)
	binary.LittleEndian.PutUint32(value[4:], den)
	return ifdEntry{tag: tag, typ: typeRational, count: 1, value: value}
}

func rationalFor(v float64) (uint32, uint32) {
	if v <= 0 {
		return 0, 1
	}
	if v > float64(^uint32(0)) {
		return ^uint32(0), 1
	}
	if v == math.Trunc(v) {
		return uint32(v), 1
	}
	num := uint64(math.Round(v * 10000))
	den := uint64(10000)
	for g := gcd(num, den); g > 1; g = gcd(num, den) {
		num /= g
		den /= g
	}
	if num > uint64(^uint32(0)) {
		return ^uint32(0), 1
	}
	return uint32(num), uint32(den)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
