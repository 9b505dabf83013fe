package report

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/keyleak/keyleak/internal/types"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Results           []sarifResult          `json:"results"`
	Properties        map[string]any         `json:"properties,omitempty"`
}

type sarifAutomationDetails struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndColumn   int `json:"endColumn"`
}

// SARIFOptions carries run metadata for WriteSARIF.
type SARIFOptions struct {
	Version string
	// Stats is attached to the run as properties.scanStats when non-empty.
	Stats map[string]int
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer. Every
// result is reported at level "error"; SARIF columns are 1-based.
func WriteSARIF(w io.Writer, findings []types.Finding, opts SARIFOptions) error {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           "keyleak",
			Version:        version,
			InformationURI: "https://github.com/keyleak/keyleak",
			Rules:          []sarifRule{},
		}},
		AutomationDetails: sarifAutomationDetails{GUID: uuid.NewString()},
		Results:           []sarifResult{},
	}
	index := map[string]int{}
	for _, f := range findings {
		idx, ok := index[f.RuleID]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[f.RuleID] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               f.RuleID,
				Name:             f.RuleName,
				ShortDescription: sarifMessage{Text: f.RuleName},
			})
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.RuleID,
			RuleIndex: idx,
			Level:     "error",
			Message:   sarifMessage{Text: f.RuleName + " detected: " + Mask(f.Match)},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: Source(f)},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Start + 1,
						EndColumn:   f.End + 1,
					},
				},
			}},
		})
	}
	if len(opts.Stats) > 0 {
		run.Properties = map[string]any{"scanStats": opts.Stats}
	}
	doc := sarif{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
