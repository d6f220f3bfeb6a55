package features

// SeasonWet is 1 for the wet months May through October and 0 otherwise.
// month must already be within 1..12.
func SeasonWet(month int) int {
	if month >= 5 && month <= 10 {
		return 1
	}
	return 0
}
