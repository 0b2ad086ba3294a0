// Package payload reads and writes the images carried over the link.
package payload

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/danmuck/densecode/internal/bitcodec"
	"github.com/hashicorp/go-multierror"
)

// RGBChannels is the byte count per pixel of loaded images.
const RGBChannels = 3

// LoadImage decodes an image file into packed RGB bytes.
func LoadImage(path string) (bitcodec.Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return bitcodec.Payload{}, fmt.Errorf("payload open failed (%s): %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return bitcodec.Payload{}, fmt.Errorf("payload decode failed (%s): %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage packs img into RGB bytes, dropping alpha.
func FromImage(img image.Image) bitcodec.Payload {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]byte, 0, w*h*RGBChannels)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			data = append(data, c.R, c.G, c.B)
		}
	}
	return bitcodec.Payload{Data: data, Width: w, Height: h, Channels: RGBChannels}
}

// ToImage rebuilds an opaque RGBA image from an RGB payload.
func ToImage(p bitcodec.Payload) (*image.RGBA, error) {
	if p.Channels != RGBChannels || p.Size() != len(p.Data) {
		return nil, fmt.Errorf("payload: %d bytes do not form a %dx%d RGB image", len(p.Data), p.Width, p.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i := 0; i < p.Width*p.Height; i++ {
		px := p.Data[i*RGBChannels : (i+1)*RGBChannels]
		img.Pix[i*4] = px[0]
		img.Pix[i*4+1] = px[1]
		img.Pix[i*4+2] = px[2]
		img.Pix[i*4+3] = 0xFF
	}
	return img, nil
}

// SaveImage writes p as a PNG file.
func SaveImage(p bitcodec.Payload, path string) (err error) {
	img, err := ToImage(p)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("payload create failed (%s): %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("payload encode failed (%s): %w", path, err)
	}
	return nil
}
