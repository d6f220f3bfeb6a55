package models

import "encoding/json"

// RawObservation is a parsed but unchecked JSON object as received from a client.
type RawObservation map[string]json.RawMessage

// WeatherObservation carries either the timestamp shape or the calendar shape.
// Which one is populated depends on the deployment variant.
type WeatherObservation struct {
	Timestamp       string  `json:"timestamp,omitempty" example:"2023-05-09 14:30"`
	TemperatureC    float64 `json:"temperature_c,omitempty" example:"25.5"`
	HumidityPercent float64 `json:"humidity_percent,omitempty" example:"80"`

	DayOfYear int `json:"day_of_year,omitempty" example:"129"`
	Month     int `json:"month,omitempty" example:"5"`
	Weekday   int `json:"weekday,omitempty" example:"1"`
	Year      int `json:"year,omitempty" example:"2023"`
}
