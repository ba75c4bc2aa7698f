package extract

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// minHeight is the height receipts are upscaled to before OCR; phone
// screenshots of bank transfers are often too small for tesseract.
const minHeight = 1200

// preprocess decodes the upload, converts it to grayscale, upscales small
// images and boosts contrast. The result is PNG encoded.
func preprocess(image []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(image), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minHeight {
		gray = imaging.Resize(gray, 0, minHeight, imaging.Lanczos)
	}
	gray = imaging.AdjustContrast(gray, 20)
	gray = imaging.Sharpen(gray, 1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
