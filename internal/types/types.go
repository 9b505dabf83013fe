package types

// Rule is a declarative secret pattern as read from a rule file. Keywords and
// Entropy are optional refinements; a rule without them is still valid.
type Rule struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Regex    string   `json:"regex"`
	Keywords []string `json:"keywords,omitempty"`
	Entropy  *float64 `json:"entropy,omitempty"`
}

// HasEntropy reports whether the rule declares an entropy threshold.
func (r Rule) HasEntropy() bool { return r.Entropy != nil }

// Finding describes a single rule match. Source is empty for raw buffers such
// as stdin. Start and End are half-open character offsets within the line.
type Finding struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Match    string `json:"match"`
	Source   string `json:"source,omitempty"`
	Line     int    `json:"line"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}
