// Package generator defines the image-generation provider contract, the
// prompt templates derived from plant attributes, and the HTTP client for
// the hosted provider.
package generator

import (
	"context"

	"greenhouse/internal/queue"
)

// AspectRatio is the provider-facing framing hint for a generated image.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
)

// AspectFor maps an image kind to its aspect ratio.
func AspectFor(kind queue.Kind) AspectRatio {
	switch kind {
	case queue.KindThumbnail:
		return AspectSquare
	case queue.KindFull:
		return AspectPortrait
	case queue.KindDetail:
		return AspectLandscape
	default:
		return AspectSquare
	}
}

// Generator turns a prompt into an image file on local disk and returns its
// path. A call may take many seconds and may fail; it performs no retries of
// its own. Hangs are repaired by the scheduler's stuck-item sweep, not here.
type Generator interface {
	Generate(ctx context.Context, prompt string, aspect AspectRatio) (string, error)
}

// Func adapts a plain function to the Generator interface. Used in tests.
type Func func(ctx context.Context, prompt string, aspect AspectRatio) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string, aspect AspectRatio) (string, error) {
	return f(ctx, prompt, aspect)
}
