package loader

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	// Decoders register themselves with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// loaderBackend decodes one file format family into a Go image.
type loaderBackend interface {
	// Decode reads an encoded image from r.
	//
	// Parameters:
	//   - r: the reader providing the encoded image
	//
	// Returns:
	//   - image.Image: the decoded image in its native color model
	//   - string: the format name reported by the decoder
	//   - error: error if the stream is not a supported image
	Decode(r io.Reader) (image.Image, string, error)
}

// imageLoaderBackend decodes raster images through the registered image decoders.
type imageLoaderBackend struct{}

var _ loaderBackend = imageLoaderBackend{}

func (imageLoaderBackend) Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

// imageExtensions lists the file extensions served by imageLoaderBackend.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, path)
	}
	return l.backend, nil
}
