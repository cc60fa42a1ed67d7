package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/vav-sim-core/internal/point"
)

var (
	// bracketed state index, e.g. "[2] Heating"
	stateIndexRe = regexp.MustCompile(`\[(\d+)\]`)
	// first signed decimal anywhere in the text, e.g. "72.9 °F" or "-3"
	numericRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)`)
	// "[N]=Label" fragments in descriptions, label ends at ',' or ']'
	stateLabelRe = regexp.MustCompile(`\[(\d+)\]=([^,\]]+)`)
)

// ParsePresentValue extracts a numeric value from free-form present-value
// text. A bracketed index like "[1] Cooling" yields the index; otherwise the
// first signed decimal found anywhere in the string is used. Text with no
// parseable number is defined as zero — this function never fails.
func ParsePresentValue(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "—" {
		return 0
	}

	if m := stateIndexRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return n
		}
	}

	if m := numericRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return n
		}
	}

	return 0
}

// ParseStateLabels derives a multistate label list from descriptive text by
// collecting "[N]=Label" fragments and sorting them by N ascending. Text with
// no fragments yields the default pair ["State1", "State2"]; text with fewer
// than two fragments keeps what it found and pads with generated names, so
// the result always has at least two entries.
func ParseStateLabels(description string) []string {
	matches := stateLabelRe.FindAllStringSubmatch(description, -1)
	if len(matches) == 0 {
		return []string{"State1", "State2"}
	}

	type entry struct {
		n     int
		label string
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		entries = append(entries, entry{n, strings.TrimSpace(m[2])})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].n < entries[j].n })

	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.label)
	}
	for len(labels) < 2 {
		labels = append(labels, fmt.Sprintf("State%d", len(labels)+1))
	}
	return labels
}

// InferUnits determines the engineering unit from the point name, falling
// back to clues in the value text. The check order matters: temperature is
// classified before the generic percent check so "72% humidity" style value
// strings cannot misclassify a temperature point.
func InferUnits(name, valueText string) point.Unit {
	nameLower := strings.ToLower(name)
	valueLower := strings.ToLower(valueText)

	switch {
	case strings.Contains(nameLower, "temperature") || strings.Contains(nameLower, "temp"):
		if strings.Contains(valueLower, "°f") || strings.Contains(valueLower, "fahrenheit") {
			return point.UnitDegreesFahrenheit
		}
		return point.UnitDegreesCelsius
	case strings.Contains(nameLower, "flow") || strings.Contains(valueLower, "cfm"):
		return point.UnitCubicFeetPerMinute
	case strings.Contains(nameLower, "percent") || strings.Contains(valueLower, "%"):
		return point.UnitPercent
	case strings.Contains(nameLower, "humidity"):
		return point.UnitPercentRelativeHumidity
	case strings.Contains(nameLower, "pressure"):
		return point.UnitPascals
	case strings.Contains(nameLower, "speed"):
		return point.UnitPercent
	default:
		return point.UnitNone
	}
}
