package models

import "math"

// ResponseStyle selects the fixed response shape of a deployment.
type ResponseStyle int

const (
	// StyleClassification answers with a label and probability.
	StyleClassification ResponseStyle = iota
	// StyleCombined answers with a rain flag and an estimated amount.
	StyleCombined
)

const (
	LabelRain   = "Rain"
	LabelNoRain = "No Rain"
)

// PredictionResult is the engine-level outcome for one observation.
type PredictionResult struct {
	WillRain        bool
	RainProbability *float64
	PrecipitationMM float64
}

// PredictionResponse is the wire shape returned to clients.
type PredictionResponse struct {
	Prediction      string   `json:"prediction,omitempty" example:"Rain"`
	WillRain        bool     `json:"will_rain" example:"true"`
	RainProbability *float64 `json:"rain_probability,omitempty" example:"0.8123"`
	PrecipitationMM *float64 `json:"precipitation_mm,omitempty" example:"3.42"`
	// Input echoes the accepted observation when the deployment enables it.
	Input map[string]any `json:"input,omitempty"`
}

// Response shapes r according to style.
func (r PredictionResult) Response(style ResponseStyle) PredictionResponse {
	resp := PredictionResponse{WillRain: r.WillRain}

	if r.RainProbability != nil {
		p := round(*r.RainProbability, 4)
		resp.RainProbability = &p
	}

	switch style {
	case StyleCombined:
		mm := round(r.PrecipitationMM, 2)
		resp.PrecipitationMM = &mm
	default:
		resp.Prediction = LabelNoRain
		if r.WillRain {
			resp.Prediction = LabelRain
		}
	}

	return resp
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
