package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/keyleak/keyleak/internal/types"
)

type sarifDoc struct {
	Version string `json:"version"`
	Runs    []struct {
		Properties        map[string]any `json:"properties"`
		AutomationDetails struct {
			GUID string `json:"guid"`
		} `json:"automationDetails"`
		Tool struct {
			Driver struct {
				Name  string `json:"name"`
				Rules []struct {
					ID string `json:"id"`
				} `json:"rules"`
			} `json:"driver"`
		} `json:"tool"`
		Results []struct {
			RuleID    string `json:"ruleId"`
			RuleIndex int    `json:"ruleIndex"`
			Locations []struct {
				PhysicalLocation struct {
					ArtifactLocation struct {
						URI string `json:"uri"`
					} `json:"artifactLocation"`
					Region struct {
						StartLine   int `json:"startLine"`
						StartColumn int `json:"startColumn"`
					} `json:"region"`
				} `json:"physicalLocation"`
			} `json:"locations"`
		} `json:"results"`
	} `json:"runs"`
}

func TestWriteSARIF(t *testing.T) {
	other := types.Finding{RuleID: "jwt", RuleName: "JWT", Match: "eyJhbGciOi.eyJzdWIi.sig", Source: "b.txt", Line: 1}
	findings := []types.Finding{sample, other, sample}
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, findings, SARIFOptions{Version: "1.2.3", Stats: map[string]int{"filesScanned": 4}}); err != nil {
		t.Fatalf("WriteSARIF: %v", err)
	}
	var doc sarifDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, buf.String())
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Name != "keyleak" {
		t.Fatalf("unexpected driver %q", run.Tool.Driver.Name)
	}
	if _, err := uuid.Parse(run.AutomationDetails.GUID); err != nil {
		t.Fatalf("expected a run guid, got %q", run.AutomationDetails.GUID)
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("expected 2 distinct rules, got %d", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(run.Results))
	}
	if run.Results[1].RuleIndex != 1 || run.Results[2].RuleIndex != 0 {
		t.Fatalf("unexpected rule indexes: %+v", run.Results)
	}
	loc := run.Results[0].Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "a.go" || loc.Region.StartLine != 3 || loc.Region.StartColumn != 9 {
		t.Fatalf("unexpected location: %+v", loc)
	}
	stats, ok := run.Properties["scanStats"].(map[string]any)
	if !ok || stats["filesScanned"].(float64) != 4 {
		t.Fatalf("expected scanStats property, got %#v", run.Properties)
	}
	if bytes.Contains(buf.Bytes(), []byte(sample.Match)) {
		t.Fatal("SARIF messages should not contain the raw secret")
	}
}

func TestWriteSARIF_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, nil, SARIFOptions{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"results": []`)) {
		t.Fatalf("expected empty results array; body=%s", buf.String())
	}
}
