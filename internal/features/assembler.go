package features

import (
	"fmt"

	"rainfall-api/internal/models"
)

// Vector is one model input row, ordered by its schema.
type Vector []float64

// Assembler builds vectors for a single frozen schema.
type Assembler struct {
	schema Schema
}

func NewAssembler(schema Schema) *Assembler {
	return &Assembler{schema: schema}
}

// Schema returns the layout this assembler produces.
func (a *Assembler) Schema() Schema { return a.schema }

// Derive computes the named feature values for obs without ordering them.
func (a *Assembler) Derive(obs models.WeatherObservation) (map[string]float64, error) {
	switch a.schema.Variant {
	case VariantTimestamp:
		tf, err := ExtractTemporal(obs.Timestamp)
		if err != nil {
			return nil, &models.FieldError{Field: "timestamp", Err: err}
		}
		return map[string]float64{
			FieldHour:        float64(tf.Hour),
			FieldDayOfWeek:   float64(tf.DayOfWeek),
			FieldMonth:       float64(tf.Month),
			FieldDay:         float64(tf.Day),
			FieldTemperature: obs.TemperatureC,
			FieldHumidity:    obs.HumidityPercent,
			FieldSeasonWet:   float64(SeasonWet(tf.Month)),
		}, nil
	case VariantCalendar:
		return map[string]float64{
			FieldDayOfYear: float64(obs.DayOfYear),
			FieldMonth:     float64(obs.Month),
			FieldWeekday:   float64(obs.Weekday),
			FieldYear:      float64(obs.Year),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported variant %q", a.schema.Variant)
	}
}

// Assemble builds the ordered vector for obs.
func (a *Assembler) Assemble(obs models.WeatherObservation) (Vector, error) {
	derived, err := a.Derive(obs)
	if err != nil {
		return nil, err
	}

	vec := make(Vector, 0, a.schema.Width())
	for _, name := range a.schema.Fields {
		v, ok := derived[name]
		if !ok {
			return nil, fmt.Errorf("schema %s: feature %q not derived", a.schema.Version, name)
		}
		vec = append(vec, v)
	}

	return vec, nil
}

// AssembleBatch builds one vector per observation, preserving input order.
// The first failure aborts the batch and is reported with its index.
func (a *Assembler) AssembleBatch(obs []models.WeatherObservation) ([]Vector, error) {
	out := make([]Vector, len(obs))
	for i, o := range obs {
		vec, err := a.Assemble(o)
		if err != nil {
			return nil, &models.ItemError{Index: i, Err: err}
		}
		out[i] = vec
	}
	return out, nil
}
