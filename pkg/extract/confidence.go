package extract

// scoreConfidence aggregates the issues recorded by the sub-resolvers into
// a confidence grade and a manual-review flag. Any fatal issue (zero price
// candidates, ambiguous pricing) forces low confidence and review; every
// non-fatal issue costs one level.
func scoreConfidence(issues []Issue) (Confidence, bool) {
	penalties := 0
	for _, issue := range issues {
		if issue.Fatal {
			return ConfidenceLow, true
		}
		penalties++
	}

	switch {
	case penalties == 0:
		return ConfidenceHigh, false
	case penalties == 1:
		return ConfidenceMedium, false
	default:
		return ConfidenceLow, true
	}
}
