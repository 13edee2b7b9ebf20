package contracts

import "fmt"

// Compression names a TIFF strip compression scheme. MRC and JPEG
// outputs ignore it.
type Compression string

const (
	CompressionZlib Compression = "zlib"
	CompressionLZW  Compression = "lzw"
)

// Options is the resolved run configuration. The CLI builds and
// validates it once; after that it is passed by value and never
// mutated.
type Options struct {
	Input        string
	Output       string
	Scale        int
	Compression  Compression
	NCores       int
	KeepBasename bool
	FlipTIF      *bool // nil means decide per file from the format pair
	ForceTIF     bool
	ForceMRC     bool
	ForceJPG     bool
}

func (o Options) Validate() error {
	if o.Input == "" {
		return fmt.Errorf("no input file or directory given")
	}
	if o.Scale < 2 || o.Scale > 4 {
		return fmt.Errorf("scale must be 2, 3 or 4, got %d", o.Scale)
	}
	switch o.Compression {
	case CompressionZlib, CompressionLZW:
	default:
		return fmt.Errorf("compression must be zlib or lzw, got %q", string(o.Compression))
	}
	if o.NCores < 1 {
		return fmt.Errorf("n_cores must be at least 1, got %d", o.NCores)
	}
	forced := 0
	for _, f := range []bool{o.ForceTIF, o.ForceMRC, o.ForceJPG} {
		if f {
			forced++
		}
	}
	if forced > 1 {
		return fmt.Errorf("only one of --force_tif, --force_mrc and --force_jpg may be given")
	}
	return nil
}
