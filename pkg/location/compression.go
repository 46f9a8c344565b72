// pkg/location/compression.go

package location

import cerr "github.com/cockroachdb/errors"

// Compression selects the codec used when archiving. It affects only the
// archive step and the file extension, never the transfer strategy.
type Compression string

const (
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionLzip  Compression = "lzip"
	CompressionXz    Compression = "xz"
)

// ParseCompression validates a user-supplied compression mode.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressionGzip, CompressionBzip2, CompressionLzip, CompressionXz:
		return Compression(s), nil
	case "":
		return CompressionGzip, nil
	}
	return "", cerr.Newf("unknown compression mode %q (want gzip, bzip2, lzip or xz)", s)
}

// Extension returns the archive file extension for this codec.
func (c Compression) Extension() string {
	switch c {
	case CompressionBzip2:
		return ".tar.bz2"
	case CompressionLzip:
		return ".tar.lz"
	case CompressionXz:
		return ".tar.xz"
	default:
		return ".tar.gz"
	}
}

// tarFlag returns the tar option that selects this codec when creating an
// archive. Extraction relies on tar's own format detection instead.
func (c Compression) tarFlag() string {
	switch c {
	case CompressionBzip2:
		return "-j"
	case CompressionLzip:
		return "--lzip"
	case CompressionXz:
		return "-J"
	default:
		return "-z"
	}
}
