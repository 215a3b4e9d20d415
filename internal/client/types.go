package client

import (
	"fmt"
	"strings"
)

// Artifact names one of the three outputs of a processing run.
type Artifact string

const (
	ArtifactOriginal   Artifact = "original"
	ArtifactTranslated Artifact = "translated"
	ArtifactRefined    Artifact = "refined"
)

// Artifacts lists every artifact kind in display order.
func Artifacts() []Artifact {
	return []Artifact{ArtifactOriginal, ArtifactTranslated, ArtifactRefined}
}

// Label returns a short human-readable name.
func (a Artifact) Label() string {
	switch a {
	case ArtifactOriginal:
		return "Original text"
	case ArtifactTranslated:
		return "Translated text"
	case ArtifactRefined:
		return "Refined text"
	default:
		return string(a)
	}
}

// ParseArtifact accepts an artifact name case-insensitively.
func ParseArtifact(s string) (Artifact, error) {
	a := Artifact(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Artifacts() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown artifact %q (expected original, translated or refined)", s)
}

// ProcessingResult is the /upload response. Each text field holds a storage
// locator, not the text itself.
type ProcessingResult struct {
	Message        string `json:"message,omitempty"`
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	RefinedText    string `json:"refined_text"`
}

// Locator returns the locator stored for the given artifact.
func (r ProcessingResult) Locator(a Artifact) (string, error) {
	switch a {
	case ArtifactOriginal:
		return r.OriginalText, nil
	case ArtifactTranslated:
		return r.TranslatedText, nil
	case ArtifactRefined:
		return r.RefinedText, nil
	default:
		return "", fmt.Errorf("unknown artifact %q", a)
	}
}

func (r ProcessingResult) validate() error {
	var missing []string
	for _, a := range Artifacts() {
		if loc, _ := r.Locator(a); strings.TrimSpace(loc) == "" {
			missing = append(missing, string(a))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("upload response missing locators: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Download is the /download/{path} response.
type Download struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}
