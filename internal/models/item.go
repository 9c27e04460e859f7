package models

import (
	"fmt"
	"strings"
)

// ItemType identifies the domain a booking belongs to.
type ItemType string

const (
	ItemCar    ItemType = "Car"
	ItemHotel  ItemType = "Hotel"
	ItemFlight ItemType = "Flight"
)

// ItemTypes lists every bookable domain in the order the trip service processes them.
var ItemTypes = []ItemType{ItemCar, ItemHotel, ItemFlight}

// ParseItemType accepts "car", "Car", "CAR" and so on.
func ParseItemType(s string) (ItemType, error) {
	for _, t := range ItemTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown booking domain %q", s)
}

// Slug is the lower-case name used in routes and request bodies.
func (t ItemType) Slug() string {
	return strings.ToLower(string(t))
}

// ReferencePrefix is the two-letter prefix of a human readable booking reference.
func (t ItemType) ReferencePrefix() string {
	switch t {
	case ItemCar:
		return "CR"
	case ItemHotel:
		return "HT"
	case ItemFlight:
		return "FL"
	default:
		return "BK"
	}
}

// BookingTable is the domain store table holding this domain's bookings.
func (t ItemType) BookingTable() string {
	return t.Slug() + "bookings"
}
