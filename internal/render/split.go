package render

// Split cuts text into segments of at most limit runes, preserving order.
// Empty text yields no segments.
func Split(text string, limit int) []string {
	if limit <= 0 || text == "" {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	runes := []rune(text)

	segments := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}

	return segments
}
