package recon

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// keywordTables holds the static classifier reference data. It is
// immutable after load: classification must stay deterministic, so
// there is no runtime registration of new patterns.
type keywordTables struct {
	Vendors    []string `yaml:"vendors"`
	Categories []string `yaml:"categories"`
}

var tables = mustLoadTables()

func mustLoadTables() keywordTables {
	var t keywordTables
	if err := yaml.Unmarshal(keywordsYAML, &t); err != nil {
		panic("recon: invalid embedded keywords.yaml: " + err.Error())
	}
	// Normalize once so the hot path is a plain substring scan.
	for i, v := range t.Vendors {
		t.Vendors[i] = strings.ToUpper(v)
	}
	for i, c := range t.Categories {
		t.Categories[i] = strings.ToLower(c)
	}
	return t
}
