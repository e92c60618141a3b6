package rules

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/dvloznov/spendwise/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type ruleFile struct {
	Rules []domain.CategoryRule `yaml:"rules"`
}

// Defaults returns the built-in rule set.
func Defaults() []domain.CategoryRule {
	var f ruleFile
	if err := yaml.Unmarshal(defaultsYAML, &f); err != nil {
		// The file is compiled in; failing here is a build defect.
		panic(fmt.Sprintf("rules: invalid embedded defaults: %v", err))
	}
	return f.Rules
}

// LoadYAML reads a rule file with the same layout as defaults.yaml.
func LoadYAML(r io.Reader) ([]domain.CategoryRule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("LoadYAML: decode: %w", err)
	}
	for i := range f.Rules {
		n, err := Normalize(f.Rules[i])
		if err != nil {
			return nil, fmt.Errorf("LoadYAML: rule %d: %w", i+1, err)
		}
		f.Rules[i] = n
	}
	return f.Rules, nil
}
