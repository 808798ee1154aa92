package model

import "time"

// Cabin is a rentable unit.  Its identity (ID and Number) never changes;
// prices and descriptive fields are edited by staff.  Prices are kept in
// cents.  Amenities and GalleryURLs are ordered lists; how they are encoded
// in the cabins table is a storage concern.
//
// Fields:
//  ID                – primary key identifier.
//  Number            – unique unit number shown to guests.
//  Name              – display name.
//  Description       – short description.
//  Capacity          – nominal guest capacity.
//  WeekdayPriceCents – nightly rate Sunday to Thursday nights.
//  WeekendPriceCents – nightly rate for Friday and Saturday nights.
//  AllowsExtraGuests – whether adults beyond two may book at a surcharge.
//  ImageURL          – cover image.
//  CalendarURL       – external platform iCal feed, when configured.
//  FullDescription   – long description.
//  Amenities         – ordered amenity labels.
//  GalleryURLs       – ordered gallery image URLs.
type Cabin struct {
	ID                uint64    // cabins.id
	Number            int       // cabins.number
	Name              string    // cabins.name
	Description       *string   // cabins.description (nullable)
	Capacity          int       // cabins.capacity
	WeekdayPriceCents int64     // cabins.weekday_price_cents
	WeekendPriceCents int64     // cabins.weekend_price_cents
	AllowsExtraGuests bool      // cabins.allows_extra_guests
	ImageURL          *string   // cabins.image_url (nullable)
	CalendarURL       *string   // cabins.calendar_url (nullable)
	FullDescription   *string   // cabins.full_description (nullable)
	Amenities         []string  // cabins.amenities
	GalleryURLs       []string  // cabins.gallery_urls
	CreatedAt         time.Time // cabins.created_at
	UpdatedAt         time.Time // cabins.updated_at
}
