package cp5200

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"ledsign/pkg/bitmap"
)

// loadPicture decodes the image at path into a width x height 1bpp plane,
// cropping or padding from the top left corner.
func loadPicture(fs afero.Fs, path string, width, height int) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode picture failed: %w", err)
	}

	return bitmap.Encode(img).Fit(width, height).Pix, nil
}
