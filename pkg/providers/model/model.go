// Package model holds the provider-agnostic model catalog types.
package model

import (
	"fmt"
	"slices"
	"strings"
)

// Capability tags what a model supports.
type Capability string

// Known capabilities.
const (
	Vision      Capability = "vision"
	ImageGen    Capability = "image_gen"
	Embedding   Capability = "embedding"
	Tools       Capability = "tools"
	LongContext Capability = "long_context"
)

// LongContextThreshold is the context length from which a model counts as
// long-context.
const LongContextThreshold = 100_000

// Capabilities lists every known capability in display order.
var Capabilities = []Capability{Vision, ImageGen, Embedding, Tools, LongContext}

// ParseCapability validates s as a known capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Capabilities, c) {
		return "", fmt.Errorf("unknown capability %q (want one of %s)", s, strings.Join(capabilityNames(), ", "))
	}

	return c, nil
}

func capabilityNames() []string {
	names := make([]string, len(Capabilities))
	for i, c := range Capabilities {
		names[i] = string(c)
	}

	return names
}

// Pricing holds per-token prices as reported by the upstream catalog
// (decimal strings, USD).
type Pricing struct {
	Prompt     string `json:"prompt,omitempty"`
	Completion string `json:"completion,omitempty"`
}

// Descriptor describes one model from the upstream catalog. It is read-only
// once built.
type Descriptor struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ContextLength int          `json:"context_length,omitempty"`
	Capabilities  []Capability `json:"capabilities"`
	Pricing       Pricing      `json:"pricing"`
}

// Has reports whether the model declares capability c.
func (d Descriptor) Has(c Capability) bool {
	return slices.Contains(d.Capabilities, c)
}

// Matches reports whether term occurs in the id or display name,
// case-insensitively. An empty term matches everything.
func (d Descriptor) Matches(term string) bool {
	term = strings.ToLower(term)

	return strings.Contains(strings.ToLower(d.ID), term) ||
		strings.Contains(strings.ToLower(d.Name), term)
}

// Traits are the raw catalog attributes capabilities are derived from.
type Traits struct {
	InputModalities     []string
	OutputModalities    []string
	SupportedParameters []string
	ContextLength       int
}

// DeriveCapabilities maps raw catalog attributes to capability tags.
func DeriveCapabilities(t Traits) []Capability {
	caps := make([]Capability, 0, len(Capabilities))

	if slices.Contains(t.InputModalities, "image") {
		caps = append(caps, Vision)
	}
	if slices.Contains(t.OutputModalities, "image") {
		caps = append(caps, ImageGen)
	}
	if slices.Contains(t.OutputModalities, "embeddings") || slices.Contains(t.OutputModalities, "embedding") {
		caps = append(caps, Embedding)
	}
	if slices.Contains(t.SupportedParameters, "tools") {
		caps = append(caps, Tools)
	}
	if t.ContextLength >= LongContextThreshold {
		caps = append(caps, LongContext)
	}

	return caps
}

// Filter returns the models that declare capability c. An empty c returns
// all models. The input is not modified.
func Filter(models []Descriptor, c Capability) []Descriptor {
	if c == "" {
		return slices.Clone(models)
	}

	out := make([]Descriptor, 0, len(models))
	for _, m := range models {
		if m.Has(c) {
			out = append(out, m)
		}
	}

	return out
}

// Find returns the models whose id or name contains term, case-insensitively,
// preserving catalog order.
func Find(models []Descriptor, term string) []Descriptor {
	out := make([]Descriptor, 0)
	for _, m := range models {
		if m.Matches(term) {
			out = append(out, m)
		}
	}

	return out
}
