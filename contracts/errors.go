package contracts

import "errors"

// Sentinel errors for the failure kinds the pipeline distinguishes.
// The texts are user-facing and printed verbatim, so they keep the
// wording PASR has always emitted.
var (
	ErrUnsupportedInputFormat  = errors.New("Unsupported input file format. Only MRC, TIF and JPG files are supported.")
	ErrUnsupportedOutputFormat = errors.New("Unsupported output file format. Only MRC, TIF, and JPG for 2D images are supported.")
	ErrInvalidDimensions       = errors.New("Unsupported data dimensions. Only 2D images and 2D frame stacks are supported.")
	ErrStackToJPEG             = errors.New("Error: Cannot save 2D frame stack as JPG.")
	ErrOutputNotDirectory      = errors.New("If input is a directory, output must also be a directory.")
)
