package analysis

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	types "github.com/contractsense/contractsense-backend/internal/domain"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// CatalogueEntry drives one clause type through retrieval and
// extraction. Query is the canonical retrieval text for the type.
type CatalogueEntry struct {
	Type            types.ClauseType `yaml:"type"`
	Query           string           `yaml:"query"`
	Suggestion      string           `yaml:"suggestion"`
	Description     string           `yaml:"description"`
	MissingSeverity types.RiskLevel  `yaml:"missing_severity"`
	RiskGuidance    string           `yaml:"risk_guidance"`
}

type catalogueFile struct {
	Clauses []CatalogueEntry `yaml:"clauses"`
}

// Catalogue returns the embedded clause catalogue. It is validated at
// load so a malformed edit fails the first analysis run loudly.
func Catalogue() ([]CatalogueEntry, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(catalogueYAML, &f); err != nil {
		return nil, fmt.Errorf("parse clause catalogue: %w", err)
	}
	if len(f.Clauses) == 0 {
		return nil, fmt.Errorf("clause catalogue is empty")
	}
	seen := make(map[types.ClauseType]bool, len(f.Clauses))
	for i, e := range f.Clauses {
		if e.Type == "" || e.Query == "" {
			return nil, fmt.Errorf("clause catalogue entry %d is missing type or query", i)
		}
		if seen[e.Type] {
			return nil, fmt.Errorf("duplicate clause type %q in catalogue", e.Type)
		}
		seen[e.Type] = true
		if e.MissingSeverity != "" && !e.MissingSeverity.Valid() {
			return nil, fmt.Errorf("clause type %q has invalid missing_severity %q", e.Type, e.MissingSeverity)
		}
	}
	return f.Clauses, nil
}
