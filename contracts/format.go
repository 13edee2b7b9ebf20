package contracts

import (
	"path/filepath"
	"strings"
)

// Format tags the codec family a path maps to. The zero value means
// the extension is not one PASR handles.
type Format int

const (
	FormatUnknown Format = iota
	FormatMRC
	FormatTIFF
	FormatJPEG
)

// The five extensions PASR has always keyed on. ".jpeg" is not one of
// them.
var formatByExt = map[string]Format{
	".mrc":  FormatMRC,
	".mrcs": FormatMRC,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".jpg":  FormatJPEG,
}

// FormatForPath resolves the codec family from a path's extension,
// case-insensitively.
func FormatForPath(path string) Format {
	return formatByExt[strings.ToLower(filepath.Ext(path))]
}

func (f Format) String() string {
	switch f {
	case FormatMRC:
		return "MRC"
	case FormatTIFF:
		return "TIF"
	case FormatJPEG:
		return "JPG"
	}
	return "unknown"
}
