package openrouter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNoImages is returned when an image generation response carries no image.
var ErrNoImages = errors.New("openrouter: no images in response")

// ImageParams describes an image generation request.
type ImageParams struct {
	Model        string
	Prompt       string
	AspectRatio  string // e.g. "1:1", "16:9".
	Size         string // "1K", "2K" or "4K".
	Background   string // transparent, opaque or auto (model dependent).
	Quality      string // low, medium, high or auto (model dependent).
	OutputFormat string // png, jpeg or webp (model dependent).
}

// Image is one decoded generated image.
type Image struct {
	MIMEType string
	Data     []byte
}

// GenerateImage requests image output through the chat completions endpoint
// and decodes the returned data URLs.
func (c *Client) GenerateImage(ctx context.Context, p ImageParams) ([]Image, error) {
	req := apiChatRequest{
		Model:      p.Model,
		Messages:   []Message{{Role: RoleUser, Content: p.Prompt}},
		Modalities: []string{"image", "text"},
		ImageConfig: &apiImageConfig{
			AspectRatio: p.AspectRatio,
			ImageSize:   p.Size,
		},
		N:            1,
		Background:   p.Background,
		Quality:      p.Quality,
		OutputFormat: p.OutputFormat,
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	raw := resp.Choices[0].Message.Images
	if len(raw) == 0 {
		return nil, ErrNoImages
	}

	images := make([]Image, 0, len(raw))
	for i, img := range raw {
		decoded, err := DecodeDataURL(img.ImageURL.URL)
		if err != nil {
			return nil, fmt.Errorf("openrouter: image %d: %w", i, err)
		}
		images = append(images, decoded)
	}

	return images, nil
}

// DecodeDataURL decodes a base64 "data:<mime>;base64,<payload>" URL.
func DecodeDataURL(u string) (Image, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return Image{}, fmt.Errorf("not a data URL: %.40q", u)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, errors.New("malformed data URL: missing payload")
	}

	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Image{}, errors.New("malformed data URL: payload is not base64")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data URL: %w", err)
	}

	return Image{MIMEType: mime, Data: data}, nil
}
