package trip

import (
	"strconv"
	"strings"
)

// Parse extracts trip fields from one line of chat text using a tolerant
// "key: value, key: value" grammar. Segments without a colon or with an
// empty value are skipped, unknown keys are dropped, and a later occurrence
// of a key overwrites an earlier one. Parse never fails: garbled input just
// yields an emptier Draft.
func Parse(text string) Draft {
	var d Draft

	for _, segment := range strings.Split(text, ",") {
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}

		switch key {
		case "origin":
			d.Origin = &value
		case "destination", "to":
			d.Destination = &value
		case "mode", "transport", "transportmode":
			d.TransportMode = &value
		case "date":
			d.Date = &value
		case "time":
			d.Time = &value
		case "co", "cotravellers", "co-travelers", "co_travelers", "cotravelers":
			// Chat input is noisy: a count we cannot read is zero, not an error.
			n, err := strconv.Atoi(value)
			if err != nil {
				n = 0
			}
			d.CoTravelers = &n
		case "notes":
			d.Notes = &value
		}
	}

	return d
}
