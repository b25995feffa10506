package entity

import "time"

// SlotDateLayout is the wire format for slot dates (DD_MM_YYYY), kept from
// the upstream clients.
const SlotDateLayout = "02_01_2006"

// ParseSlotDate parses a DD_MM_YYYY slot date.
func ParseSlotDate(s string) (time.Time, error) {
	return time.Parse(SlotDateLayout, s)
}
