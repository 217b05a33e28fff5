package routertools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
)

const imageDescription = `Generate an image with an OpenRouter image model and save it to output_path.
output_path must be absolute; parent directories are created. When the model returns several images they are saved as <name>_<i><ext>.
If "model" is omitted DEFAULT_IMAGE_MODEL is used.`

// Defaults applied when the caller leaves the option empty.
const (
	DefaultAspectRatio = "1:1"
	DefaultImageSize   = "1K"
)

type imageArgs struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt" validate:"notblank"`
	OutputPath   string `json:"output_path" validate:"required,abspath"`
	AspectRatio  string `json:"aspect_ratio" validate:"omitempty,oneof=1:1 16:9 9:16 4:3 3:4 21:9"`
	Size         string `json:"size" validate:"omitempty,oneof=1K 2K 4K"`
	Background   string `json:"background"`
	Quality      string `json:"quality"`
	OutputFormat string `json:"output_format" validate:"omitempty,oneof=png jpeg webp"`
}

func (s *Service) generateImage(ctx context.Context, input json.RawMessage) (string, error) {
	var args imageArgs
	if err := s.decode(input, &args); err != nil {
		return "", err
	}

	m, err := s.resolveModel(args.Model, config.KindImage)
	if err != nil {
		return "", err
	}

	if args.AspectRatio == "" {
		args.AspectRatio = DefaultAspectRatio
	}
	if args.Size == "" {
		args.Size = DefaultImageSize
	}

	images, err := s.client.GenerateImage(ctx, openrouter.ImageParams{
		Model:        m,
		Prompt:       args.Prompt,
		AspectRatio:  args.AspectRatio,
		Size:         args.Size,
		Background:   args.Background,
		Quality:      args.Quality,
		OutputFormat: args.OutputFormat,
	})
	if err != nil {
		return "", err
	}

	paths, err := writeImages(filepath.Clean(args.OutputPath), images)
	if err != nil {
		return "", err
	}

	s.log.DebugContext(ctx, "images saved", "model", m, "paths", paths)

	lines := make([]string, len(paths))
	for i, p := range paths {
		lines[i] = "Generated image saved to " + p
	}

	return strings.Join(lines, "\n"), nil
}

// imagePaths returns the file names for n images: path itself for a single
// image, <stem>_<i><ext> otherwise.
func imagePaths(path string, n int) []string {
	if n == 1 {
		return []string{path}
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}

	return paths
}

func writeImages(path string, images []openrouter.Image) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, &IOError{Path: filepath.Dir(path), Err: err}
	}

	paths := imagePaths(path, len(images))
	for i, img := range images {
		if err := os.WriteFile(paths[i], img.Data, 0o600); err != nil {
			return nil, &IOError{Path: paths[i], Err: err}
		}
	}

	return paths, nil
}
