package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	// 注册解码器
	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
)

const jpegQuality = 85

// NormalizePicture decodes an image, center-crops it to a square, scales it
// down to at most maxSize pixels and re-encodes it as JPEG.
func NormalizePicture(raw []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	square := cropSquare(img)
	if side := square.Bounds().Dx(); side > maxSize {
		square = resize.Resize(uint(maxSize), uint(maxSize), square, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, square, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func cropSquare(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var cropRect image.Rectangle
	if w > h {
		offset := (w - h) / 2
		cropRect = image.Rect(offset, 0, offset+h, h)
	} else {
		offset := (h - w) / 2
		cropRect = image.Rect(0, offset, w, offset+w)
	}
	cropRect = cropRect.Add(bounds.Min)

	squareImg := image.NewRGBA(image.Rect(0, 0, cropRect.Dx(), cropRect.Dy()))
	draw.Draw(squareImg, squareImg.Bounds(), img, cropRect.Min, draw.Src)
	return squareImg
}
