package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/david/termin-watch/internal/extract"
	"gopkg.in/yaml.v3"
)

//go:embed flow.yaml
var flowYAML embed.FS

// Flow describes the labels of the booking flow and how to read its
// result page.
type Flow struct {
	Office            string     `yaml:"office"`
	TargetURL         string     `yaml:"target_url"`
	Unit              string     `yaml:"unit"`
	Service           string     `yaml:"service"`
	ConcernCandidates []string   `yaml:"concern_candidates"`
	ContinueLabels    []string   `yaml:"continue_labels"`
	DialogLabels      []string   `yaml:"dialog_labels"`
	Extraction        Extraction `yaml:"extraction"`
}

// Extraction tunes the strategy chain.
type Extraction struct {
	LeadPhrase        string   `yaml:"lead_phrase"`
	RowKeyword        string   `yaml:"row_keyword"`
	UnavailableMarker string   `yaml:"unavailable_marker"`
	MaxRows           int      `yaml:"max_rows,omitempty"`
	MaxCells          int      `yaml:"max_cells,omitempty"`
	Strategies        []string `yaml:"strategies,omitempty"`
}

// LoadFlow reads the embedded flow.yaml, or the file at path when path is
// not empty.
func LoadFlow(path string) (*Flow, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = flowYAML.ReadFile("flow.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read flow config: %w", err)
	}

	// Expand environment variables within the YAML content (e.g. ${TARGET_URL})
	expanded := os.ExpandEnv(string(data))

	var flow Flow
	if err := yaml.Unmarshal([]byte(expanded), &flow); err != nil {
		return nil, fmt.Errorf("parse flow config: %w", err)
	}
	if err := flow.validate(); err != nil {
		return nil, err
	}
	return &flow, nil
}

func (f *Flow) validate() error {
	var missing []string
	if strings.TrimSpace(f.Unit) == "" {
		missing = append(missing, "unit")
	}
	if strings.TrimSpace(f.Service) == "" {
		missing = append(missing, "service")
	}
	if len(f.ContinueLabels) == 0 {
		missing = append(missing, "continue_labels")
	}
	if len(missing) > 0 {
		return fmt.Errorf("flow config is missing %s", strings.Join(missing, ", "))
	}
	if len(f.ConcernCandidates) == 0 {
		f.ConcernCandidates = []string{f.Service}
	}
	return nil
}

// Settings maps the extraction block onto the strategy settings, keeping
// the built-in defaults for anything left empty.
func (e Extraction) Settings() extract.Settings {
	s := extract.DefaultSettings()
	if e.LeadPhrase != "" {
		s.LeadPhrase = e.LeadPhrase
	}
	if e.RowKeyword != "" {
		s.RowKeyword = e.RowKeyword
	}
	if e.UnavailableMarker != "" {
		s.UnavailableIn = e.UnavailableMarker
	}
	if e.MaxRows > 0 {
		s.MaxRows = e.MaxRows
	}
	if e.MaxCells > 0 {
		s.MaxCells = e.MaxCells
	}
	return s
}

// Chain builds the extraction chain in the configured order.
func (e Extraction) Chain() (*extract.Chain, error) {
	return extract.BuildChain(extract.NewDefaultFactory(e.Settings()), e.Strategies)
}
