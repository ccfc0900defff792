package generation

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"ai-video-orchestrator/internal/domain"
)

// LoadReferenceImage decodes the image at path, fits it inside maxSide x maxSide
// and re-encodes it as PNG.
func LoadReferenceImage(path string, maxSide int) ([]byte, string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reference image: %v", domain.ErrValidation, err)
	}
	if maxSide > 0 {
		b := img.Bounds()
		if b.Dx() > maxSide || b.Dy() > maxSide {
			img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
		}
	}
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, "", fmt.Errorf("encode reference image: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}
