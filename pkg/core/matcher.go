package core

// Match selects the error page configuration for a request. Each stage
// narrows the survivors of the previous one; see the stage functions for
// their fallback rules. The records must already be ordered by position.
func Match(records []Record, point DimensionPoint, statusCode int, requestPath string) *Record {
	byStatus := filterStatus(records, statusCode)
	if len(byStatus) == 0 {
		return nil
	}
	byDimension := filterDimension(byStatus, point)
	if match := selectByPath(byDimension, requestPath); match != nil {
		return match
	}
	return &byStatus[0]
}

// filterStatus keeps records answering statusCode. No fallback: an empty
// result means there is no configuration.
func filterStatus(records []Record, statusCode int) []Record {
	result := make([]Record, 0, len(records))
	for _, record := range records {
		if record.MatchesStatus(statusCode) {
			result = append(result, record)
		}
	}
	return result
}

// filterDimension keeps records whose point equals point exactly. When none
// does, the input is returned unchanged so dimension agnostic records stay
// eligible.
func filterDimension(records []Record, point DimensionPoint) []Record {
	result := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Dimensions.Equal(point) {
			result = append(result, record)
		}
	}
	if len(result) == 0 {
		return records
	}
	return result
}

// selectByPath picks the first prefix bearing record matching requestPath,
// falling back to the first record without prefixes. Without any prefix
// bearing record the first record wins. Returns nil when nothing fits.
func selectByPath(records []Record, requestPath string) *Record {
	var prefixed, unbound []int
	for i := range records {
		if len(records[i].PathPrefixes) > 0 {
			prefixed = append(prefixed, i)
		} else {
			unbound = append(unbound, i)
		}
	}
	if len(prefixed) == 0 {
		if len(records) == 0 {
			return nil
		}
		return &records[0]
	}
	for _, i := range prefixed {
		if records[i].MatchesPath(requestPath) {
			return &records[i]
		}
	}
	if len(unbound) > 0 {
		return &records[unbound[0]]
	}
	return nil
}

// FindConfigurationForSite looks the site up in configurations and matches.
func FindConfigurationForSite(configurations SiteConfigurations, site string, point DimensionPoint, statusCode int, requestPath string) *Record {
	return Match(configurations[site], point, statusCode, requestPath)
}
