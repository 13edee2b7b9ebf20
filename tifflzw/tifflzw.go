// Package tifflzw compresses byte streams with the TIFF flavor of LZW
// (TIFF 6.0, section 13): codes packed MSB first, 8-bit literals,
// clear code 256, end-of-information 257, and the code width grown one
// table entry earlier than in the GIF flavor. The stdlib compress/lzw
// writer emits the GIF timing and cannot produce these streams;
// golang.org/x/image/tiff/lzw decodes them but has no encoder.
package tifflzw

import "bytes"

const (
	clearCode = 256
	eofCode   = 257
	firstCode = 258

	maxWidth = 12
	// reset the table before the decoder side stops tracking entries
	tableTop = 4094
)

type bitWriter struct {
	buf   bytes.Buffer
	bits  uint8
	count int
}

func (bw *bitWriter) writeBit(bit uint8) {
	bw.bits = (bw.bits << 1) | (bit & 1)
	bw.count++
	if bw.count == 8 {
		bw.buf.WriteByte(bw.bits)
		bw.bits = 0
		bw.count = 0
	}
}

func (bw *bitWriter) writeBits(code uint16, length int) {
	for i := length - 1; i >= 0; i-- {
		bw.writeBit(uint8((code >> i) & 1))
	}
}

func (bw *bitWriter) flush() {
	if bw.count > 0 {
		bw.bits <<= 8 - bw.count
		bw.buf.WriteByte(bw.bits)
		bw.bits = 0
		bw.count = 0
	}
}

// Encode compresses src into a fresh TIFF-LZW stream, one strip's
// worth. The stream always begins with a clear code and ends with the
// end-of-information code, zero-padded to a byte boundary.
func Encode(src []byte) []byte {
	bw := &bitWriter{}
	bw.writeBits(clearCode, 9)
	if len(src) == 0 {
		bw.writeBits(eofCode, 9)
		bw.flush()
		return bw.buf.Bytes()
	}

	table := make(map[uint32]uint16, 4096)
	next := uint16(firstCode)
	width := 9

	prefix := uint16(src[0])
	for _, b := range src[1:] {
		key := uint32(prefix)<<8 | uint32(b)
		if code, ok := table[key]; ok {
			prefix = code
			continue
		}
		bw.writeBits(prefix, width)
		table[key] = next
		next++
		if int(next) >= 1<<width && width < maxWidth {
			width++
		}
		prefix = uint16(b)
		if next >= tableTop {
			bw.writeBits(clearCode, width)
			table = make(map[uint32]uint16, 4096)
			next = firstCode
			width = 9
		}
	}
	bw.writeBits(prefix, width)

	// the decoder grows its table on the final code too; mirror that
	// before choosing the width of the end code
	next++
	if int(next) >= 1<<width && width < maxWidth {
		width++
	}
	bw.writeBits(eofCode, width)
	bw.flush()
	return bw.buf.Bytes()
}
