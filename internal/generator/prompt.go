package generator

import (
	"fmt"
	"strings"

	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

// BuildPrompt assembles the provider prompt for one image kind from the
// plant's catalog attributes. Each kind carries its own framing directive so
// the three images of a batch read as a coherent set.
func BuildPrompt(plant *plants.Plant, kind queue.Kind) string {
	subject := plant.Name
	if plant.Species != "" {
		subject = fmt.Sprintf("%s (%s)", plant.Name, plant.Species)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A high quality botanical photograph of %s.", subject)
	if desc := strings.TrimSpace(plant.Description); desc != "" {
		fmt.Fprintf(&b, " %s.", strings.TrimSuffix(desc, "."))
	}
	b.WriteString(" ")
	b.WriteString(kindDirective(kind))
	b.WriteString(" Natural lighting, soft background, no text or watermarks.")
	return b.String()
}

func kindDirective(kind queue.Kind) string {
	switch kind {
	case queue.KindThumbnail:
		return "Square crop of the whole plant centered in frame, suitable as a small catalog thumbnail."
	case queue.KindFull:
		return "Full-length portrait showing the entire plant from soil to tip, including its pot or bed."
	case queue.KindDetail:
		return "Close-up macro shot of the foliage texture and any flowers or distinguishing features."
	default:
		return "Clear photograph of the whole plant."
	}
}
