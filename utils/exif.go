// Package utils reads pixel-density metadata from image files.
package utils

import (
	"os"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// ReadResolution extracts the pixel density of a TIFF or JPEG file in
// dots per inch. ok is false when the file carries no usable
// resolution tags; MRC files never do.
func ReadResolution(path string) (xdpi, ydpi float64, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, false
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, 0, false
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 0, 0, false
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return 0, 0, false
	}

	xdpi = rationalTag(index, "XResolution")
	ydpi = rationalTag(index, "YResolution")
	if xdpi <= 0 || ydpi <= 0 {
		return 0, 0, false
	}

	// ResolutionUnit 3 means pixels per centimetre.
	if tags, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil && len(tags) > 0 {
		if val, err := tags[0].Value(); err == nil {
			if units, isShorts := val.([]uint16); isShorts && len(units) > 0 && units[0] == 3 {
				xdpi *= 2.54
				ydpi *= 2.54
			}
		}
	}

	return xdpi, ydpi, true
}

func rationalTag(index exif.IfdIndex, name string) float64 {
	tags, err := index.RootIfd.FindTagWithName(name)
	if err != nil || len(tags) == 0 {
		return 0
	}
	val, err := tags[0].Value()
	if err != nil {
		return 0
	}
	rats, isRational := val.([]exifcommon.Rational)
	if !isRational || len(rats) == 0 || rats[0].Denominator == 0 {
		return 0
	}
	return float64(rats[0].Numerator) / float64(rats[0].Denominator)
}
