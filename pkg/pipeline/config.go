package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects the extraction knobs that vary between drawing-set
// vintages. Every field has a working default; a YAML file overrides
// only what it names.
type Tuning struct {
	// MaxCandidatePages caps how many pages the candidate scorer keeps.
	MaxCandidatePages int `yaml:"max_candidate_pages"`

	// MinOCRConfidence discards OCR output for pages whose provider
	// confidence (0-100) falls below it.
	MinOCRConfidence float64 `yaml:"min_ocr_confidence"`

	// OCREnabled gates the OCR fallback even when a provider is wired.
	OCREnabled bool `yaml:"ocr_enabled"`

	// TitleBlockOCR upgrades low-confidence sheet titles with a crop
	// recognition pass when a provider supports it.
	TitleBlockOCR bool `yaml:"title_block_ocr"`
}

// DefaultTuning returns the working defaults.
func DefaultTuning() Tuning {
	return Tuning{
		MaxCandidatePages: 6,
		MinOCRConfidence:  30,
		OCREnabled:        true,
		TitleBlockOCR:     true,
	}
}

// LoadTuning reads a YAML tuning file over the defaults. A missing path
// returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	if t.MaxCandidatePages < 1 {
		return t, fmt.Errorf("max_candidate_pages must be positive, got %d", t.MaxCandidatePages)
	}
	return t, nil
}
