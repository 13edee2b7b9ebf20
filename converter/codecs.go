package converter

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"

	"github.com/pkg/errors"

	"github.com/rbs-sci/PASR/contracts"
	"github.com/rbs-sci/PASR/mrc"
	"github.com/rbs-sci/PASR/stack"
	"github.com/rbs-sci/PASR/tiffstack"
	"github.com/rbs-sci/PASR/utils"
)

const jpegQuality = 90

// codec is one entry of the format capability table: decode a file
// into a stack, and encode a scaled stack back out. Encode returns the
// summary line for the presentation layer.
type codec interface {
	Decode(path string) (*stack.Stack, error)
	Encode(path string, s *stack.Stack, job contracts.Job) (string, error)
}

var codecs = map[contracts.Format]codec{
	contracts.FormatMRC:  mrcCodec{},
	contracts.FormatTIFF: tiffCodec{},
	contracts.FormatJPEG: jpegCodec{},
}

type mrcCodec struct{}

func (mrcCodec) Decode(path string) (*stack.Stack, error) {
	return mrc.Read(path)
}

func (mrcCodec) Encode(path string, s *stack.Stack, _ contracts.Job) (string, error) {
	if err := mrc.Write(path, s); err != nil {
		return "", err
	}
	note := fmt.Sprintf("PASR pre-processed data written to %s. No compression applied for MRC format (use TIF for compression).", path)
	return note, nil
}

type tiffCodec struct{}

func (tiffCodec) Decode(path string) (*stack.Stack, error) {
	return tiffstack.Read(path)
}

func (tiffCodec) Encode(path string, s *stack.Stack, job contracts.Job) (string, error) {
	flipStatus := "No flipping applied."
	if job.Flip {
		s.Flip()
		flipStatus = "Flipping applied."
	}

	opts := tiffstack.WriteOptions{Compression: job.Compression}
	// Replicated pixels sample the same physical area more finely, so
	// any known density scales with the image.
	if xdpi, ydpi, ok := utils.ReadResolution(job.InputPath); ok {
		opts.XDPI = xdpi * float64(job.Scale)
		opts.YDPI = ydpi * float64(job.Scale)
	}

	if err := tiffstack.Write(path, s, opts); err != nil {
		return "", err
	}
	note := fmt.Sprintf("PASR pre-processed data written to %s with %s compression. %s", path, job.Compression, flipStatus)
	return note, nil
}

type jpegCodec struct{}

func (jpegCodec) Decode(path string) (*stack.Stack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	bounds := img.Bounds()
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = image.NewGray(bounds)
		draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	}

	s := stack.New(stack.Uint8, 2, 1, bounds.Dy(), bounds.Dx())
	for y := 0; y < s.Height; y++ {
		copy(s.Data[y*s.RowBytes():], gray.Pix[y*gray.Stride:y*gray.Stride+s.Width])
	}
	return s, nil
}

func (jpegCodec) Encode(path string, s *stack.Stack, _ contracts.Job) (string, error) {
	if s.Rank == 3 {
		return "", contracts.ErrStackToJPEG
	}

	u8 := s.CastUint8()
	img := image.NewGray(image.Rect(0, 0, u8.Width, u8.Height))
	for y := 0; y < u8.Height; y++ {
		copy(img.Pix[y*img.Stride:], u8.Data[y*u8.RowBytes():(y+1)*u8.RowBytes()])
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", path)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "encoding %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", path)
	}
	return fmt.Sprintf("PASR pre-processed data written to %s", path), nil
}
