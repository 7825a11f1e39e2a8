package address

import (
	"regexp"
	"strings"
)

// HouseNumber is a parsed Austrian house number.
type HouseNumber struct {
	HouseNumber string `json:"houseNumber"`
	Stairway    string `json:"stairway,omitempty"`
	DoorNumber  string `json:"doorNumber,omitempty"`
}

var (
	stairwayPart = regexp.MustCompile(`(?i)^(?:stiege|stg\.|st\.)\s*(.+)$`)
	doorPart     = regexp.MustCompile(`(?i)^(?:top|tür|t\.)\s*(.+)$`)
)

// ParseHouseNumber splits raw into its parts.
//
// Segments after the first "/" that carry a keyword (Stiege, Stg., St. for
// the stairway; Top, Tür, T. for the door) are assigned by keyword, and an
// unlabelled segment fills whichever slot is still empty. Without keywords
// the split is positional: two parts are house number and door, three or
// more are house number, stairway and door.
func ParseHouseNumber(raw string) HouseNumber {
	parts := splitSegments(raw)
	if len(parts) == 0 {
		return HouseNumber{}
	}

	if hn, ok := parseNamed(parts); ok {
		return hn
	}

	switch len(parts) {
	case 1:
		return HouseNumber{HouseNumber: parts[0]}
	case 2:
		return HouseNumber{HouseNumber: parts[0], DoorNumber: parts[1]}
	default:
		return HouseNumber{HouseNumber: parts[0], Stairway: parts[1], DoorNumber: parts[2]}
	}
}

func parseNamed(parts []string) (HouseNumber, bool) {
	hn := HouseNumber{HouseNumber: parts[0]}
	var (
		named     bool
		unlabeled []string
	)
	for _, p := range parts[1:] {
		if m := stairwayPart.FindStringSubmatch(p); m != nil {
			hn.Stairway = strings.TrimSpace(m[1])
			named = true
			continue
		}
		if m := doorPart.FindStringSubmatch(p); m != nil {
			hn.DoorNumber = strings.TrimSpace(m[1])
			named = true
			continue
		}
		unlabeled = append(unlabeled, p)
	}
	if !named {
		return HouseNumber{}, false
	}

	for _, p := range unlabeled {
		switch {
		case hn.Stairway == "" && hn.DoorNumber != "":
			hn.Stairway = p
		case hn.DoorNumber == "":
			hn.DoorNumber = p
		}
	}
	return hn, true
}

func splitSegments(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// SanitizeHouseNumber returns the bare street number: everything before the
// first "/", trimmed. Geocoders reject unit suffixes.
func SanitizeHouseNumber(raw string) string {
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}
