package catalog

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Cluster names used by the root-cause diagnoser.
const (
	ClusterOther   = "Other"
	ClusterUnknown = "Unknown"
)

// ChannelOther labels customers without a known channel.
const ChannelOther = "Other"

// Suggestion is one entry of the action catalog.
type Suggestion struct {
	Action       string  `yaml:"action" json:"action"`
	Owner        string  `yaml:"owner" json:"owner"`
	ExpectedLift float64 `yaml:"expected_lift" json:"expected_lift"`
}

// Catalog holds the process-wide lookup tables. A Catalog is never mutated after
// construction; accessors return copies or scalar values only.
type Catalog struct {
	channels    map[string]string
	activities  []string
	rootCauses  map[string]string
	suggestions map[string]Suggestion
}

// file mirrors the YAML override layout. Omitted sections keep the defaults.
type file struct {
	Channels           map[string]string     `yaml:"channels"`
	AnalysisActivities []string              `yaml:"analysis_activities"`
	RootCauses         map[string]string     `yaml:"root_causes"`
	Suggestions        map[string]Suggestion `yaml:"suggestions"`
}

var defaultChannels = map[string]string{
	"Z41102": "express",
	"Z41103": "hyper",
	"Z41104": "partner",
	"Z41105": "Super / MKTI",
	"Z41108": "B2B",
}

var defaultActivities = []string{"4", "5"}

var defaultRootCauses = map[string]string{
	"late_dispatch":      "Transport/Dispatch",
	"early_dispatch":     "Transport/Dispatch",
	"last_minute_change": "Customer/Order Mgmt",
	"wms_tms_mismatch":   "IT/Integration",
	"insufficient_stock": "Inventory",
	"picking_delay":      "Operations/Picking",
	"unknown":            ClusterUnknown,
}

var defaultSuggestions = map[string]Suggestion{
	"Transport/Dispatch":  {Action: "Review cut-off times and recalibrate transport planning", Owner: "Transport", ExpectedLift: 1.0},
	"Customer/Order Mgmt": {Action: "Renegotiate order lock-time agreements with the customer", Owner: "Account Mgmt", ExpectedLift: 0.7},
	"IT/Integration":      {Action: "Check WMS-TMS interfaces and correct the mapping", Owner: "IT", ExpectedLift: 0.4},
	"Inventory":           {Action: "Adjust stock parameters and replenishment cycles", Owner: "Supply Chain", ExpectedLift: 0.6},
	"Operations/Picking":  {Action: "Optimise capacity planning and pick sequence", Owner: "Operations", ExpectedLift: 0.5},
	ClusterOther:          {Action: "Run a Gemba walk and 5-Why analysis", Owner: "Quality", ExpectedLift: 0.3},
	ClusterUnknown:        {Action: "Improve labelling data and register exceptions", Owner: "Process Excellence", ExpectedLift: 0.2},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		channels:    maps.Clone(defaultChannels),
		activities:  slices.Clone(defaultActivities),
		rootCauses:  maps.Clone(defaultRootCauses),
		suggestions: maps.Clone(defaultSuggestions),
	}
}

// Load reads a YAML override file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML override content on top of the defaults.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	cat := Default()
	if len(f.Channels) > 0 {
		cat.channels = maps.Clone(f.Channels)
	}
	if len(f.AnalysisActivities) > 0 {
		cat.activities = make([]string, 0, len(f.AnalysisActivities))
		for _, a := range f.AnalysisActivities {
			cat.activities = append(cat.activities, strings.TrimSpace(a))
		}
	}
	if len(f.RootCauses) > 0 {
		cat.rootCauses = maps.Clone(f.RootCauses)
	}
	for name, s := range f.Suggestions {
		if s.ExpectedLift < 0 {
			return nil, fmt.Errorf("catalog: suggestion %q has negative expected_lift", name)
		}
		cat.suggestions[name] = s
	}
	if _, ok := cat.suggestions[ClusterOther]; !ok {
		return nil, fmt.Errorf("catalog: suggestion for %q is required", ClusterOther)
	}
	return cat, nil
}

// Channel maps a customer id to its channel label, or "Other".
func (c *Catalog) Channel(customerID string) string {
	if label, ok := c.channels[strings.TrimSpace(customerID)]; ok {
		return label
	}
	return ChannelOther
}

// CustomerAllowed reports whether the customer has a known channel.
func (c *Catalog) CustomerAllowed(customerID string) bool {
	_, ok := c.channels[strings.TrimSpace(customerID)]
	return ok
}

// AnalysisActivity reports whether records with this activity code enter the compliance report.
func (c *Catalog) AnalysisActivity(code string) bool {
	return slices.Contains(c.activities, strings.TrimSpace(code))
}

// AnalysisActivities returns a copy of the activity subset of the compliance report.
func (c *Catalog) AnalysisActivities() []string {
	return slices.Clone(c.activities)
}

// Cluster maps a reason code to its cause cluster. Blank codes are Unknown,
// codes without a mapping are Other.
func (c *Catalog) Cluster(reason string) string {
	r := strings.TrimSpace(reason)
	if r == "" {
		return ClusterUnknown
	}
	if cluster, ok := c.rootCauses[r]; ok {
		return cluster
	}
	return ClusterOther
}

// Suggest returns the action for a cluster, falling back to the Other entry.
func (c *Catalog) Suggest(cluster string) Suggestion {
	if s, ok := c.suggestions[cluster]; ok {
		return s
	}
	return c.suggestions[ClusterOther]
}
