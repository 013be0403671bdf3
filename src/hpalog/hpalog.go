// Package hpalog extracts CPU utilization and replica counts from autoscaler watch logs
// (the `kubectl get hpa -w` table format). Extraction is tolerant: a line either yields one
// complete Record or nothing, and malformed lines never abort a scan.
package hpalog

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMarker is the workload name used by the php-apache HPA walkthrough experiments.
const DefaultMarker = "php-apache"

// replicasField is the 0-based whitespace token holding the current replica count.
// In a watch line such as
//
//	php-apache   Deployment/php-apache   cpu: 250%/50%   1   10   4   3m
//
// "cpu:" and its value are separate tokens, so REPLICAS (4 here) lands at index 6.
const replicasField = 6

var cpuRe = regexp.MustCompile(`cpu:\s*(\d+)%`)

// Record is one successfully extracted sample.
type Record struct {
	Utilization int `json:"cpu_utilization_pct"`
	Replicas    int `json:"replicas"`
}

// Filter selects candidate lines by marker substring.
type Filter struct {
	Marker string
}

// NewFilter returns a Filter for marker, falling back to DefaultMarker when empty.
func NewFilter(marker string) Filter {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	return Filter{Marker: marker}
}

// Match reports whether line contains the marker. A zero Filter matches everything.
func (f Filter) Match(line string) bool {
	return strings.Contains(line, f.Marker)
}

// Lines returns the subsequence of lines containing the marker, in input order.
func (f Filter) Lines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Extract parses utilization and replica count from a candidate line. The bool is false
// when either field is missing or malformed; no partial Record is ever returned.
func Extract(line string) (Record, bool) {
	util, ok := extractUtilization(line)
	if !ok {
		return Record{}, false
	}
	replicas, ok := extractReplicas(line)
	if !ok {
		return Record{}, false
	}
	return Record{Utilization: util, Replicas: replicas}, true
}

func extractUtilization(line string) (int, bool) {
	m := cpuRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

func extractReplicas(line string) (int, bool) {
	parts := strings.Fields(line)
	if len(parts) <= replicasField {
		return 0, false
	}
	v, err := strconv.Atoi(parts[replicasField])
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ExtractAll filters lines and extracts records, preserving survivor order.
func ExtractAll(lines []string, f Filter) []Record {
	var out []Record
	for _, l := range f.Lines(lines) {
		if r, ok := Extract(l); ok {
			out = append(out, r)
		}
	}
	return out
}
