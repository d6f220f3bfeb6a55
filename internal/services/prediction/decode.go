package prediction

import (
	"bytes"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"rainfall-api/internal/features"
	"rainfall-api/internal/models"
)

// Field names accepted on the wire, with the aliases older clients send.
var (
	fieldTimestamp   = wireField{"timestamp", []string{"datetime_str", "datetime"}}
	fieldTemperature = wireField{"temperature_c", []string{"temp"}}
	fieldHumidity    = wireField{"humidity_percent", []string{"humidity"}}
	fieldDayOfYear   = wireField{"day_of_year", nil}
	fieldMonth       = wireField{"month", nil}
	fieldWeekday     = wireField{"weekday", nil}
	fieldYear        = wireField{"year", nil}
)

type wireField struct {
	name    string
	aliases []string
}

func (f wireField) lookup(raw models.RawObservation) ([]byte, bool) {
	for _, key := range append([]string{f.name}, f.aliases...) {
		v, ok := raw[key]
		if ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

func required[T any](raw models.RawObservation, f wireField) (T, error) {
	var out T

	v, ok := f.lookup(raw)
	if !ok {
		return out, &models.FieldError{Field: f.name, Err: models.ErrMissingField}
	}
	if err := json.Unmarshal(v, &out); err != nil {
		return out, &models.FieldError{
			Field:  f.name,
			Err:    models.ErrTypeMismatch,
			Detail: fmt.Sprintf("expected %T, got %s", out, v),
		}
	}
	return out, nil
}

type rangeRule struct {
	field  string
	tag    string
	detail string
}

// decoder turns raw payloads into observations for one variant, rejecting
// missing, mistyped and out-of-range fields before anything reaches the model.
type decoder struct {
	variant      features.Variant
	strictRanges bool
	validate     *validator.Validate
}

func newDecoder(variant features.Variant, strictRanges bool) *decoder {
	return &decoder{
		variant:      variant,
		strictRanges: strictRanges,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (d *decoder) decode(raw models.RawObservation) (models.WeatherObservation, error) {
	if raw == nil {
		return models.WeatherObservation{}, models.ErrMalformedBody
	}

	switch d.variant {
	case features.VariantCalendar:
		return d.decodeCalendar(raw)
	default:
		return d.decodeTimestamp(raw)
	}
}

func (d *decoder) decodeTimestamp(raw models.RawObservation) (models.WeatherObservation, error) {
	var obs models.WeatherObservation
	var err error

	if obs.Timestamp, err = required[string](raw, fieldTimestamp); err != nil {
		return obs, err
	}
	if obs.TemperatureC, err = required[float64](raw, fieldTemperature); err != nil {
		return obs, err
	}
	if obs.HumidityPercent, err = required[float64](raw, fieldHumidity); err != nil {
		return obs, err
	}

	if _, err := features.ExtractTemporal(obs.Timestamp); err != nil {
		return obs, &models.FieldError{Field: fieldTimestamp.name, Err: err}
	}

	if d.strictRanges {
		err := d.checkRanges(
			[]any{obs.TemperatureC, obs.HumidityPercent},
			[]rangeRule{
				{fieldTemperature.name, "gte=-90,lte=60", "must be within [-90, 60] °C"},
				{fieldHumidity.name, "gte=0,lte=100", "must be within [0, 100] %"},
			},
		)
		if err != nil {
			return obs, err
		}
	}

	return obs, nil
}

func (d *decoder) decodeCalendar(raw models.RawObservation) (models.WeatherObservation, error) {
	var obs models.WeatherObservation
	var err error

	if obs.DayOfYear, err = required[int](raw, fieldDayOfYear); err != nil {
		return obs, err
	}
	if obs.Month, err = required[int](raw, fieldMonth); err != nil {
		return obs, err
	}
	if obs.Weekday, err = required[int](raw, fieldWeekday); err != nil {
		return obs, err
	}
	if obs.Year, err = required[int](raw, fieldYear); err != nil {
		return obs, err
	}

	err = d.checkRanges(
		[]any{obs.DayOfYear, obs.Month, obs.Weekday, obs.Year},
		[]rangeRule{
			{fieldDayOfYear.name, "min=1,max=366", "must be within [1, 366]"},
			{fieldMonth.name, "min=1,max=12", "must be within [1, 12]"},
			{fieldWeekday.name, "min=0,max=6", "must be within [0, 6], Monday=0"},
			{fieldYear.name, "min=1,max=9999", "must be within [1, 9999]"},
		},
	)
	if err != nil {
		return obs, err
	}

	if days := features.DaysInYear(obs.Year); obs.DayOfYear > days {
		return obs, &models.FieldError{
			Field:  fieldDayOfYear.name,
			Err:    models.ErrOutOfRange,
			Detail: fmt.Sprintf("%d has %d days", obs.Year, days),
		}
	}

	return obs, nil
}

// echo renders obs under the canonical wire names of the variant.
func (d *decoder) echo(obs models.WeatherObservation) map[string]any {
	if d.variant == features.VariantCalendar {
		return map[string]any{
			fieldDayOfYear.name: obs.DayOfYear,
			fieldMonth.name:     obs.Month,
			fieldWeekday.name:   obs.Weekday,
			fieldYear.name:      obs.Year,
		}
	}
	return map[string]any{
		fieldTimestamp.name:   obs.Timestamp,
		fieldTemperature.name: obs.TemperatureC,
		fieldHumidity.name:    obs.HumidityPercent,
	}
}

func (d *decoder) checkRanges(values []any, rules []rangeRule) error {
	for i, rule := range rules {
		if err := d.validate.Var(values[i], rule.tag); err != nil {
			return &models.FieldError{Field: rule.field, Err: models.ErrOutOfRange, Detail: rule.detail}
		}
	}
	return nil
}
