package downloader

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var errBrokenImage = errors.New("broken image")

// verifyImage decodes the header of file. Formats without a registered
// decoder pass unchecked.
func verifyImage(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, _, err := image.DecodeConfig(f)
	if errors.Is(err, image.ErrFormat) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errBrokenImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%w: empty %dx%d", errBrokenImage, cfg.Width, cfg.Height)
	}

	return nil
}
