package generator_test

import (
	"strings"
	"testing"

	"greenhouse/internal/generator"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

func TestBuildPromptIncludesAttributes(t *testing.T) {
	plant := &plants.Plant{
		Name:        "Monstera",
		Species:     "Monstera deliciosa",
		Description: "Large split leaves with deep fenestrations",
	}

	prompt := generator.BuildPrompt(plant, queue.KindFull)
	for _, want := range []string{"Monstera", "Monstera deliciosa", "split leaves", "portrait"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q: %s", want, prompt)
		}
	}
}

func TestBuildPromptVariesByKind(t *testing.T) {
	plant := &plants.Plant{Name: "Pothos"}
	seen := make(map[string]queue.Kind)
	for _, kind := range queue.AllKinds() {
		prompt := generator.BuildPrompt(plant, kind)
		if prior, dup := seen[prompt]; dup {
			t.Fatalf("kinds %s and %s produced identical prompts", prior, kind)
		}
		seen[prompt] = kind
	}
}

func TestBuildPromptWithoutOptionalFields(t *testing.T) {
	plant := &plants.Plant{Name: "Cactus"}
	prompt := generator.BuildPrompt(plant, queue.KindThumbnail)
	if !strings.Contains(prompt, "Cactus") {
		t.Fatalf("prompt missing plant name: %s", prompt)
	}
	if strings.Contains(prompt, "()") {
		t.Fatalf("prompt leaked empty species parens: %s", prompt)
	}
}

func TestAspectFor(t *testing.T) {
	cases := map[queue.Kind]generator.AspectRatio{
		queue.KindThumbnail: generator.AspectSquare,
		queue.KindFull:      generator.AspectPortrait,
		queue.KindDetail:    generator.AspectLandscape,
	}
	for kind, want := range cases {
		if got := generator.AspectFor(kind); got != want {
			t.Fatalf("AspectFor(%s) = %s, want %s", kind, got, want)
		}
	}
}
