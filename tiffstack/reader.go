package tiffstack

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/google/tiff"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"golang.org/x/image/tiff/lzw"

	"github.com/rbs-sci/PASR/stack"
)

// frame is one decoded page: its shape plus little-endian samples.
type frame struct {
	width, height int
	dtype         stack.DType
	pixels        []byte
}

// Read decodes the TIFF file at path.
func Read(path string) (*stack.Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return s, nil
}

// Decode parses a whole TIFF byte stream. A single page decodes as a
// rank-2 image; multiple pages become a rank-3 stack and must agree on
// shape and sample type.
func Decode(data []byte) (*stack.Stack, error) {
	t, err := tiff.Parse(bytes.NewReader(data), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "parsing TIFF structure")
	}
	ifds := t.IFDs()
	if len(ifds) == 0 {
		return nil, errors.New("TIFF has no image directories")
	}

	// strip payloads of >8-bit samples follow the file byte order
	var order binary.ByteOrder = binary.LittleEndian
	if data[0] == 'M' {
		order = binary.BigEndian
	}

	var out *stack.Stack
	for i, ifd := range ifds {
		fr, err := decodePage(data, ifd, order)
		if err != nil {
			return nil, errors.Wrapf(err, "TIFF page %d", i)
		}
		if out == nil {
			rank := 3
			if len(ifds) == 1 {
				rank = 2
			}
			// decodePage bounds a single page, not the page count
			frameBytes := int64(fr.height) * int64(fr.width) * int64(fr.dtype.Size())
			if int64(len(ifds)) > maxDataBytes/frameBytes {
				return nil, errors.Errorf("TIFF stack size out of range (%d pages of %dx%d)",
					len(ifds), fr.height, fr.width)
			}
			out = stack.New(fr.dtype, rank, len(ifds), fr.height, fr.width)
		} else if fr.width != out.Width || fr.height != out.Height || fr.dtype != out.DType {
			return nil, errors.Errorf("TIFF page %d is %dx%d %v, page 0 is %dx%d %v",
				i, fr.height, fr.width, fr.dtype, out.Height, out.Width, out.DType)
		}
		copy(out.Data[i*out.FrameBytes():], fr.pixels)
	}
	return out, nil
}

func decodePage(file []byte, ifd tiff.IFD, order binary.ByteOrder) (*frame, error) {
	if ifd.HasField(tagTileWidth) {
		return nil, errors.New("tiled TIFF files are not supported")
	}

	width := int(fieldScalar(ifd, tagImageWidth, 0))
	height := int(fieldScalar(ifd, tagImageLength, 0))
	if width < 1 || height < 1 {
		return nil, errors.Errorf("bad page dimensions %dx%d", height, width)
	}

	photometric := fieldScalar(ifd, tagPhotometric, 1)
	if photometric > 1 {
		return nil, errors.Errorf("only grayscale TIFF is supported (photometric %d)", photometric)
	}
	if spp := fieldScalar(ifd, tagSamplesPerPixel, 1); spp != 1 {
		return nil, errors.Errorf("only grayscale TIFF is supported (%d samples per pixel)", spp)
	}

	bits := fieldScalar(ifd, tagBitsPerSample, 1)
	sfmt := fieldScalar(ifd, tagSampleFormat, sampleFormatUint)
	dt, err := dtypeFor(bits, sfmt)
	if err != nil {
		return nil, err
	}
	sz := dt.Size()
	// Guarded by division: multiplied outright, the byte total can wrap
	// int64 on a corrupt IFD.
	if int64(width) > maxDataBytes/int64(sz) || int64(height) > maxDataBytes/(int64(width)*int64(sz)) {
		return nil, errors.Errorf("TIFF page size out of range (%dx%d)", height, width)
	}

	comp := fieldScalar(ifd, tagCompression, compressionNone)
	pred := fieldScalar(ifd, tagPredictor, predictorNone)
	if pred != predictorNone && pred != predictorHorizontal {
		return nil, errors.Errorf("unsupported TIFF predictor %d", pred)
	}
	if pred == predictorHorizontal && dt == stack.Float32 {
		return nil, errors.New("horizontal predictor on float samples is not supported")
	}

	rps := int(fieldScalar(ifd, tagRowsPerStrip, 0xFFFFFFFF))
	if rps < 1 || rps > height {
		rps = height
	}
	offsets := fieldUints(ifd.GetField(tagStripOffsets))
	counts := fieldUints(ifd.GetField(tagStripByteCounts))
	strips := (height + rps - 1) / rps
	if len(offsets) != strips || len(counts) != strips {
		return nil, errors.Errorf("strip layout mismatch: %d offsets, %d counts, %d strips",
			len(offsets), len(counts), strips)
	}

	rowBytes := width * sz
	pixels := make([]byte, height*rowBytes)
	for i := 0; i < strips; i++ {
		off, cnt := offsets[i], counts[i]
		if off > uint64(len(file)) || cnt > uint64(len(file))-off {
			return nil, errors.Errorf("strip %d extends past end of file", i)
		}
		raw, err := inflateStrip(file[off:off+cnt], comp)
		if err != nil {
			return nil, errors.Wrapf(err, "strip %d", i)
		}
		rows := rps
		if i == strips-1 {
			rows = height - i*rps
		}
		need := rows * rowBytes
		if len(raw) < need {
			return nil, errors.Errorf("strip %d is short: %d bytes, need %d", i, len(raw), need)
		}
		copy(pixels[i*rps*rowBytes:], raw[:need])
	}

	if order == binary.BigEndian && sz > 1 {
		stack.SwapBytes(pixels, sz)
	}
	if pred == predictorHorizontal {
		undoHorizontalPredictor(pixels, width, height, sz)
	}
	return &frame{width: width, height: height, dtype: dt, pixels: pixels}, nil
}

func dtypeFor(bits, sfmt uint64) (stack.DType, error) {
	switch bits {
	case 8:
		switch sfmt {
		case sampleFormatUint:
			return stack.Uint8, nil
		case sampleFormatInt:
			return stack.Int8, nil
		}
	case 16:
		switch sfmt {
		case sampleFormatUint:
			return stack.Uint16, nil
		case sampleFormatInt:
			return stack.Int16, nil
		}
	case 32:
		if sfmt == sampleFormatFloat {
			return stack.Float32, nil
		}
	}
	return 0, errors.Errorf("unsupported TIFF samples: %d bits, sample format %d", bits, sfmt)
}

func inflateStrip(raw []byte, comp uint64) ([]byte, error) {
	switch comp {
	case compressionNone:
		return raw, nil
	case compressionLZW:
		rc := lzw.NewReader(bytes.NewReader(raw), lzw.MSB, 8)
		defer rc.Close()
		return io.ReadAll(rc)
	case compressionDeflate, compressionOldDeflate:
		rc, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.Errorf("unsupported TIFF compression %d", comp)
}

// undoHorizontalPredictor accumulates row-wise sample differences back
// into absolute values.
func undoHorizontalPredictor(pixels []byte, width, height, size int) {
	switch size {
	case 1:
		for y := 0; y < height; y++ {
			row := pixels[y*width : (y+1)*width]
			for x := 1; x < width; x++ {
				row[x] += row[x-1]
			}
		}
	case 2:
		rowBytes := width * 2
		for y := 0; y < height; y++ {
			row := pixels[y*rowBytes : (y+1)*rowBytes]
			for x := 1; x < width; x++ {
				prev := binary.LittleEndian.Uint16(row[2*(x-1):])
				cur := binary.LittleEndian.Uint16(row[2*x:])
				binary.LittleEndian.PutUint16(row[2*x:], cur+prev)
			}
		}
	}
}

// fieldScalar returns the first value of a tag, or def when the tag is
// absent.
func fieldScalar(ifd tiff.IFD, tagID uint16, def uint64) uint64 {
	if !ifd.HasField(tagID) {
		return def
	}
	vals := fieldUints(ifd.GetField(tagID))
	if len(vals) == 0 {
		return def
	}
	return vals[0]
}

// fieldUints decodes a field's integer payload, inferring the element
// width from the payload length.
func fieldUints(f tiff.Field) []uint64 {
	if f == nil {
		return nil
	}
	fv := f.Value()
	if fv == nil {
		return nil
	}
	b := fv.Bytes()
	n := int(f.Count())
	if n == 0 || len(b) == 0 || len(b)%n != 0 {
		return nil
	}
	ord := fv.Order()
	out := make([]uint64, 0, n)
	switch len(b) / n {
	case 1:
		for i := 0; i < n; i++ {
			out = append(out, uint64(b[i]))
		}
	case 2:
		for i := 0; i < n; i++ {
			out = append(out, uint64(ord.Uint16(b[2*i:])))
		}
	case 4:
		for i := 0; i < n; i++ {
			out = append(out, uint64(ord.Uint32(b[4*i:])))
		}
	case 8:
		for i := 0; i < n; i++ {
			out = append(out, ord.Uint64(b[8*i:]))
		}
	default:
		return nil
	}
	return out
}
