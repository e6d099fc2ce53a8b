package aggregation

const (
	maxLabels  = 100
	labelEvery = 8
)

// ThinLabels blanks category labels when there are too many to display.
// Above 100 categories only every 8th label is kept. Categories themselves are untouched.
func ThinLabels(categories []string) []string {
	labels := make([]string, len(categories))
	copy(labels, categories)

	if len(labels) <= maxLabels {
		return labels
	}
	for i := range labels {
		if i%labelEvery != 0 {
			labels[i] = ""
		}
	}
	return labels
}
