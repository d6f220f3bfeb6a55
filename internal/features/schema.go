// Package features turns client observations into the ordered numeric vectors
// the trained rain models consume.
//
// Feature order is a contract with the trained artifact: models read their input
// positionally, so a reordered or renamed column yields wrong predictions rather
// than an error. Schemas are therefore frozen and versioned; any change requires
// a retrained model and a new version string.
package features

import (
	"fmt"
	"slices"
)

// Variant is the input shape a deployment accepts.
type Variant string

const (
	VariantTimestamp Variant = "timestamp"
	VariantCalendar  Variant = "calendar"
)

// Feature names as they appear in the training data.
const (
	FieldHour        = "hour"
	FieldDayOfWeek   = "dayofweek"
	FieldMonth       = "month"
	FieldDay         = "day"
	FieldTemperature = "Temperature_C"
	FieldHumidity    = "Humidity_%"
	FieldSeasonWet   = "season_wet"

	FieldDayOfYear = "day_of_year"
	FieldWeekday   = "weekday"
	FieldYear      = "year"
)

// Schema is a frozen, versioned feature layout.
type Schema struct {
	Version string
	Variant Variant
	Fields  []string
}

var (
	TimestampSchemaV1 = Schema{
		Version: "timestamp/v1",
		Variant: VariantTimestamp,
		Fields: []string{
			FieldHour,
			FieldDayOfWeek,
			FieldMonth,
			FieldDay,
			FieldTemperature,
			FieldHumidity,
			FieldSeasonWet,
		},
	}

	CalendarSchemaV1 = Schema{
		Version: "calendar/v1",
		Variant: VariantCalendar,
		Fields: []string{
			FieldDayOfYear,
			FieldMonth,
			FieldWeekday,
			FieldYear,
		},
	}
)

var knownSchemas = []Schema{TimestampSchemaV1, CalendarSchemaV1}

// LookupSchema returns the frozen schema with the given version. When names is
// non-empty it must match the schema's fields exactly, in order.
func LookupSchema(version string, names []string) (Schema, error) {
	for _, s := range knownSchemas {
		if s.Version != version {
			continue
		}
		if len(names) > 0 && !slices.Equal(s.Fields, names) {
			return Schema{}, fmt.Errorf("feature names %v do not match schema %s %v", names, s.Version, s.Fields)
		}
		return s, nil
	}
	return Schema{}, fmt.Errorf("unknown feature schema %q", version)
}

// Width is the number of columns in a vector of this schema.
func (s Schema) Width() int { return len(s.Fields) }

// Index returns the column of name, or -1.
func (s Schema) Index(name string) int {
	return slices.Index(s.Fields, name)
}

// Equal reports whether two schemas describe the same layout.
func (s Schema) Equal(other Schema) bool {
	return s.Version == other.Version && slices.Equal(s.Fields, other.Fields)
}
