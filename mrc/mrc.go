// Package mrc reads and writes MRC2014 image and frame-stack files,
// modes 0 (int8), 1 (int16), 2 (float32) and 6 (uint16).
package mrc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/rbs-sci/PASR/contracts"
	"github.com/rbs-sci/PASR/stack"
)

const headerSize = 1024

// maxDataBytes bounds the pixel payload a header may announce.
const maxDataBytes = int64(1) << 40

const (
	modeInt8    = 0
	modeInt16   = 1
	modeFloat32 = 2
	modeUint16  = 6
)

// header is the fixed 1024-byte MRC2014 file header.
type header struct {
	NX, NY, NZ                int32
	Mode                      int32
	NXStart, NYStart, NZStart int32
	MX, MY, MZ                int32
	CellA                     [3]float32
	CellB                     [3]float32
	MapC, MapR, MapS          int32
	DMin, DMax, DMean         float32
	ISpg                      int32
	NSymBT                    int32
	Extra1                    [2]int32
	ExtTyp                    [4]byte
	NVersion                  int32
	Extra2                    [21]int32
	Origin                    [3]float32
	MapID                     [4]byte
	MachSt                    [4]byte
	RMS                       float32
	NLabl                     int32
	Labels                    [10][80]byte
}

func dtypeForMode(mode int32) (stack.DType, error) {
	switch mode {
	case modeInt8:
		return stack.Int8, nil
	case modeInt16:
		return stack.Int16, nil
	case modeFloat32:
		return stack.Float32, nil
	case modeUint16:
		return stack.Uint16, nil
	}
	return 0, errors.Errorf("unsupported MRC mode %d", mode)
}

func modeForDType(dt stack.DType) (int32, error) {
	switch dt {
	case stack.Int8:
		return modeInt8, nil
	case stack.Int16:
		return modeInt16, nil
	case stack.Float32:
		return modeFloat32, nil
	case stack.Uint16:
		return modeUint16, nil
	}
	return 0, errors.Errorf("MRC has no mode for %v data", dt)
}

func byteOrderForStamp(stamp []byte) (binary.ByteOrder, error) {
	switch {
	case stamp[0] == 0x44 && (stamp[1] == 0x44 || stamp[1] == 0x41):
		return binary.LittleEndian, nil
	case stamp[0] == 0x11 && stamp[1] == 0x11:
		return binary.BigEndian, nil
	}
	return nil, errors.Errorf("unrecognised MRC machine stamp % x", stamp)
}

// Decode reads one MRC file from r. A volume with NZ == 1 comes back
// as a rank-2 image; anything deeper is a rank-3 frame stack. Samples
// are byte-swapped to little-endian when the file is big-endian.
func Decode(r io.Reader) (*stack.Stack, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrap(err, "reading MRC header")
	}
	if string(raw[208:212]) != "MAP " {
		return nil, errors.New("missing MAP id, not an MRC 2014 file")
	}
	order, err := byteOrderForStamp(raw[212:216])
	if err != nil {
		return nil, err
	}

	var h header
	if err := binary.Read(bytes.NewReader(raw), order, &h); err != nil {
		return nil, errors.Wrap(err, "parsing MRC header")
	}
	dt, err := dtypeForMode(h.Mode)
	if err != nil {
		return nil, err
	}
	if h.NX < 1 || h.NY < 1 || h.NZ < 1 {
		return nil, errors.Errorf("bad MRC dimensions %dx%dx%d", h.NX, h.NY, h.NZ)
	}
	// Guarded by division: multiplied outright, the byte total can wrap
	// int64 on a corrupt header and slip under the limit.
	if int64(h.NX)*int64(h.NY) > maxDataBytes/(int64(h.NZ)*int64(dt.Size())) {
		return nil, errors.Errorf("MRC data size out of range (%dx%dx%d)", h.NX, h.NY, h.NZ)
	}
	// Space groups 401 and up mark a stack of volumes: 4-D data, which
	// has no place in a 2-D pipeline.
	if h.ISpg >= 401 {
		return nil, contracts.ErrInvalidDimensions
	}
	if h.NSymBT < 0 {
		return nil, errors.Errorf("bad MRC extended header size %d", h.NSymBT)
	}
	if h.NSymBT > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(h.NSymBT)); err != nil {
			return nil, errors.Wrap(err, "skipping MRC extended header")
		}
	}

	rank := 3
	if h.NZ == 1 {
		rank = 2
	}
	s := stack.New(dt, rank, int(h.NZ), int(h.NY), int(h.NX))
	if _, err := io.ReadFull(r, s.Data); err != nil {
		return nil, errors.Wrap(err, "reading MRC data")
	}
	if order == binary.BigEndian && dt.Size() > 1 {
		stack.SwapBytes(s.Data, dt.Size())
	}
	return s, nil
}

// Encode writes s as a fresh little-endian MRC2014 file. The header is
// built from scratch: dimensions and statistics from the data, unit
// cell angles at 90 degrees and a single creation label.
func Encode(w io.Writer, s *stack.Stack) error {
	mode, err := modeForDType(s.DType)
	if err != nil {
		return err
	}
	min, max, mean, rms := s.MinMaxMeanRMS()

	h := header{
		NX:       int32(s.Width),
		NY:       int32(s.Height),
		NZ:       int32(s.Frames),
		Mode:     mode,
		MX:       int32(s.Width),
		MY:       int32(s.Height),
		MZ:       int32(s.Frames),
		CellB:    [3]float32{90, 90, 90},
		MapC:     1,
		MapR:     2,
		MapS:     3,
		DMin:     float32(min),
		DMax:     float32(max),
		DMean:    float32(mean),
		NVersion: 20141,
		MapID:    [4]byte{'M', 'A', 'P', ' '},
		MachSt:   [4]byte{0x44, 0x44, 0x00, 0x00},
		RMS:      float32(rms),
		NLabl:    1,
	}
	label := fmt.Sprintf("%-80s", "Created by PASR on "+time.Now().UTC().Format("2006-01-02 15:04:05"))
	copy(h.Labels[0][:], label)

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "writing MRC header")
	}
	if _, err := w.Write(s.Data); err != nil {
		return errors.Wrap(err, "writing MRC data")
	}
	return nil
}

// Read decodes the MRC file at path.
func Read(path string) (*stack.Stack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return s, nil
}

// Write encodes s to path, replacing any existing file.
func Write(path string, s *stack.Stack) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	w := bufio.NewWriterSize(f, 8*1024*1024)
	if err := Encode(w, s); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
