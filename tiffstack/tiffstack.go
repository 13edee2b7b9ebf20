// Package tiffstack reads and writes multi-page grayscale TIFF files,
// treating the page sequence as a frame stack. Samples may be 8- or
// 16-bit integers or 32-bit floats; strips may be uncompressed,
// LZW or deflate compressed.
package tiffstack

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagXResolution     = 282
	tagYResolution     = 283
	tagResolutionUnit  = 296
	tagPredictor       = 317
	tagTileWidth       = 322
	tagSampleFormat    = 339
)

const (
	compressionNone       = 1
	compressionLZW        = 5
	compressionDeflate    = 8
	compressionOldDeflate = 32946
)

const (
	predictorNone       = 1
	predictorHorizontal = 2
)

const (
	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

const (
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// target strip payload before compression
const stripTargetBytes = 64 * 1024

// maxDataBytes bounds the decoded payload a file may announce.
const maxDataBytes = int64(1) << 40
