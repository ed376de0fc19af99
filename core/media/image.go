package media

import (
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// maxImageWidth bounds stored cover art and avatars.
const maxImageWidth = 1024

// SaveImage decodes an uploaded image, downscales it to the width bound when
// needed, and writes it to dst. The format is derived from dst's extension.
func SaveImage(src io.Reader, dst string) error {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	if err := imaging.Save(img, dst); err != nil {
		return fmt.Errorf("failed to save image to %s: %w", dst, err)
	}
	return nil
}
