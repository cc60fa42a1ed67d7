package point

import (
	"fmt"
	"strings"
)

// Kind is the value shape of a point: analog (float), binary (bool) or
// multistate (1-based state index).
type Kind string

// Kind constants.
const (
	KindAnalog     Kind = "analog"
	KindBinary     Kind = "binary"
	KindMultistate Kind = "multistate"
)

// Category is one of the nine object categories exposed by the device.
type Category string

// Category constants.
const (
	CategoryAnalogInput      Category = "analog_input"
	CategoryAnalogOutput     Category = "analog_output"
	CategoryAnalogValue      Category = "analog_value"
	CategoryBinaryInput      Category = "binary_input"
	CategoryBinaryOutput     Category = "binary_output"
	CategoryBinaryValue      Category = "binary_value"
	CategoryMultistateInput  Category = "multistate_input"
	CategoryMultistateOutput Category = "multistate_output"
	CategoryMultistateValue  Category = "multistate_value"
)

// AllCategories returns all nine categories in canonical order.
// The registry uses this order when synthesising placeholders.
func AllCategories() []Category {
	return []Category{
		CategoryAnalogInput, CategoryAnalogOutput, CategoryAnalogValue,
		CategoryBinaryInput, CategoryBinaryOutput, CategoryBinaryValue,
		CategoryMultistateInput, CategoryMultistateOutput, CategoryMultistateValue,
	}
}

// Kind returns the value shape for the category.
func (c Category) Kind() Kind {
	switch c {
	case CategoryAnalogInput, CategoryAnalogOutput, CategoryAnalogValue:
		return KindAnalog
	case CategoryBinaryInput, CategoryBinaryOutput, CategoryBinaryValue:
		return KindBinary
	default:
		return KindMultistate
	}
}

// Commandable reports whether points of this category carry a priority array.
// Inputs are read-only from the network's perspective; outputs and values
// are commandable.
func (c Category) Commandable() bool {
	return !strings.HasSuffix(string(c), "_input")
}

// Display returns the human-readable category name, e.g. "Analog Input".
func (c Category) Display() string {
	parts := strings.SplitN(string(c), "_", 2)
	if len(parts) != 2 {
		return string(c)
	}
	kind := parts[0]
	if kind == "multistate" {
		kind = "Multi State"
	} else {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	return kind + " " + strings.ToUpper(parts[1][:1]) + parts[1][1:]
}

// NormalizeCategory maps the textual category spellings found in point
// definition files onto the canonical category tags. It tolerates case and
// spacing variants ("Multi State Input", "multistateinput" and
// "Multistate Input" all map to CategoryMultistateInput). Unknown spellings
// are an error, not a best-guess category.
func NormalizeCategory(text string) (Category, error) {
	key := strings.ToLower(text)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, "_", "")

	switch key {
	case "analoginput", "ai":
		return CategoryAnalogInput, nil
	case "analogoutput", "ao":
		return CategoryAnalogOutput, nil
	case "analogvalue", "av":
		return CategoryAnalogValue, nil
	case "binaryinput", "bi":
		return CategoryBinaryInput, nil
	case "binaryoutput", "bo":
		return CategoryBinaryOutput, nil
	case "binaryvalue", "bv":
		return CategoryBinaryValue, nil
	case "multistateinput", "multiinput", "msi", "mi":
		return CategoryMultistateInput, nil
	case "multistateoutput", "multioutput", "mso", "mo":
		return CategoryMultistateOutput, nil
	case "multistatevalue", "multivalue", "msv", "mv":
		return CategoryMultistateValue, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, text)
	}
}

// Unit is the semantic engineering-unit tag attached to a point.
type Unit string

// Unit constants.
const (
	UnitNone                    Unit = "noUnits"
	UnitDegreesCelsius          Unit = "degreesCelsius"
	UnitDegreesFahrenheit       Unit = "degreesFahrenheit"
	UnitLitersPerSecond         Unit = "litersPerSecond"
	UnitCubicFeetPerMinute      Unit = "cubicFeetPerMinute"
	UnitPercent                 Unit = "percent"
	UnitPercentRelativeHumidity Unit = "percentRelativeHumidity"
	UnitPascals                 Unit = "pascals"
)

// Value is a typed point value. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind   Kind    `json:"kind"`
	Analog float64 `json:"analog,omitempty"`
	Binary bool    `json:"binary,omitempty"`
	State  int     `json:"state,omitempty"`
}

// AnalogValue returns an analog Value.
func AnalogValue(v float64) Value { return Value{Kind: KindAnalog, Analog: v} }

// BinaryValue returns a binary Value.
func BinaryValue(v bool) Value { return Value{Kind: KindBinary, Binary: v} }

// StateValue returns a multistate Value holding a 1-based state index.
func StateValue(i int) Value { return Value{Kind: KindMultistate, State: i} }

// Float returns a uniform numeric view of the value: the analog magnitude,
// 0/1 for binary, or the state index. Used for wire payloads and snapshots.
func (v Value) Float() float64 {
	switch v.Kind {
	case KindBinary:
		if v.Binary {
			return 1
		}
		return 0
	case KindMultistate:
		return float64(v.State)
	default:
		return v.Analog
	}
}

// ValueForKind converts a raw numeric magnitude into a typed Value for the
// given kind. Binary treats any non-zero magnitude as active; multistate
// floors at state 1.
func ValueForKind(kind Kind, raw float64) Value {
	switch kind {
	case KindBinary:
		return BinaryValue(raw != 0)
	case KindMultistate:
		state := int(raw)
		if state < 1 {
			state = 1
		}
		return StateValue(state)
	default:
		return AnalogValue(raw)
	}
}

// Spec is the validated, ingestion-time description of one point.
// It is created once by the loader, is immutable thereafter, and is consumed
// exactly once by the registry.
type Spec struct {
	Category     Category `json:"category"`
	Instance     uint32   `json:"instance"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	InitialValue float64  `json:"initial_value"`
	Units        Unit     `json:"units"`

	// StateLabels is set for multistate categories only; minimum length 2.
	StateLabels []string `json:"state_labels,omitempty"`

	// Synthetic marks a placeholder the registry made up for a category
	// with no source rows. Never set by ingestion.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Validate checks the spec for internal consistency.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	if _, err := NormalizeCategory(string(s.Category)); err != nil {
		return fmt.Errorf("%w: category %q", ErrInvalidSpec, s.Category)
	}
	if s.Category.Kind() == KindMultistate && len(s.StateLabels) < 2 {
		return fmt.Errorf("%w: multistate point %q needs at least two state labels", ErrInvalidSpec, s.Name)
	}
	return nil
}
