// Package address prepares Austrian postal addresses for register searches.
//
// ParseHouseNumber splits a raw house number such as "9/2/11" or
// "9/Stiege 2/Top 11" into house number, stairway and door. A bare "N/M"
// is read as house number and door, three positional parts as house number,
// stairway and door.
//
// Normalizer asks a geocoder for the canonical form of an address and
// classifies it as a street address or a named locality, which decides the
// register search mode. When the lookup fails Resolve falls back to
// title-casing the street and a standard search; geocoder failures are
// never surfaced.
package address
