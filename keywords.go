package main

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// keywordOverrides is the optional YAML file extending the built-in
// keyword dictionaries with survey-specific answer phrasings.
type keywordOverrides struct {
	Scales []keywordScaleSpec `yaml:"scales"`
}

type keywordScaleSpec struct {
	Trigger string             `yaml:"trigger"`
	Levels  []keywordLevelSpec `yaml:"levels"`
}

type keywordLevelSpec struct {
	Score int      `yaml:"score"`
	Words []string `yaml:"words"`
}

// LoadKeywordOverrides merges user-supplied keyword scales into the
// built-in dictionaries. A scale whose trigger matches an existing one
// replaces it; new triggers are appended.
func LoadKeywordOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read keyword overrides: %w", err)
	}
	var overrides keywordOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse keyword overrides: %w", err)
	}

	merged := 0
	for _, spec := range overrides.Scales {
		if spec.Trigger == "" || len(spec.Levels) == 0 {
			continue
		}
		scale := keywordScale{trigger: spec.Trigger}
		for _, level := range spec.Levels {
			scale.levels = append(scale.levels, keywordLevel{score: level.Score, words: level.Words})
		}
		replaced := false
		for i := range keywordScales {
			if keywordScales[i].trigger == spec.Trigger {
				keywordScales[i] = scale
				replaced = true
				break
			}
		}
		if !replaced {
			keywordScales = append(keywordScales, scale)
		}
		merged++
	}
	log.Printf("keyword overrides loaded path=%s scales=%d", path, merged)
	return nil
}
