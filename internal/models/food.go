package models

import (
	"fmt"
	"time"
)

type FoodStatus string

const (
	FoodStatusAvailable FoodStatus = "available"
	FoodStatusReserved  FoodStatus = "reserved"
	FoodStatusPickedUp  FoodStatus = "picked-up"
	FoodStatusExpired   FoodStatus = "expired"
)

func (s FoodStatus) Valid() bool {
	switch s {
	case FoodStatusAvailable, FoodStatusReserved, FoodStatusPickedUp, FoodStatusExpired:
		return true
	}
	return false
}

type Category string

const (
	CategoryPrepared Category = "prepared"
	CategoryProduce  Category = "produce"
	CategoryDairy    Category = "dairy"
	CategoryMeat     Category = "meat"
	CategoryPantry   Category = "pantry"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPrepared, CategoryProduce, CategoryDairy, CategoryMeat, CategoryPantry, CategoryOther:
		return true
	}
	return false
}

type Unit string

const (
	UnitServings Unit = "servings"
	UnitPounds   Unit = "pounds"
	UnitItems    Unit = "items"
	UnitBoxes    Unit = "boxes"
	UnitBags     Unit = "bags"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitServings, UnitPounds, UnitItems, UnitBoxes, UnitBags:
		return true
	}
	return false
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Food struct {
	ID                  string     `json:"id"`
	DonorID             string     `json:"donor_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Quantity            int        `json:"quantity"`
	Unit                Unit       `json:"unit"`
	Category            Category   `json:"category"`
	ExpiryDate          time.Time  `json:"expiry_date"`
	PickupTime          TimeWindow `json:"pickup_time"`
	Location            Location   `json:"location"`
	Status              FoodStatus `json:"status"`
	Allergens           []string   `json:"allergens,omitempty"`
	DietaryRestrictions []string   `json:"dietary_restrictions,omitempty"`
	MatchedShelterID    string     `json:"matched_shelter_id,omitempty"`
	AssignedVolunteerID string     `json:"assigned_volunteer_id,omitempty"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Validate checks the fields a donor supplies when posting a listing.
func (f *Food) Validate() error {
	if f.DonorID == "" {
		return fmt.Errorf("donor is required")
	}
	if f.Title == "" {
		return fmt.Errorf("title is required")
	}
	if f.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if !f.Unit.Valid() {
		return fmt.Errorf("invalid unit: %q", f.Unit)
	}
	if !f.Category.Valid() {
		return fmt.Errorf("invalid category: %q", f.Category)
	}
	if f.ExpiryDate.IsZero() {
		return fmt.Errorf("expiry date is required")
	}
	if f.PickupTime.Start.IsZero() {
		return fmt.Errorf("pickup window is required")
	}
	if !f.PickupTime.Start.Before(f.PickupTime.End) {
		return fmt.Errorf("pickup window start must be before end")
	}
	return f.Location.Validate()
}

// utc drops location and monotonic reading, matching what storage returns.
func utc(t time.Time) time.Time {
	return t.UTC().Round(0)
}

// NormalizeTimes puts the donor-supplied times in the form they are read
// back in.
func (f *Food) NormalizeTimes() {
	f.ExpiryDate = utc(f.ExpiryDate)
	f.PickupTime = TimeWindow{Start: utc(f.PickupTime.Start), End: utc(f.PickupTime.End)}
}

// FoodUpdate carries the donor-editable fields of a listing. Nil fields are
// left unchanged.
type FoodUpdate struct {
	Title               *string
	Description         *string
	Quantity            *int
	Unit                *Unit
	Category            *Category
	ExpiryDate          *time.Time
	PickupTime          *TimeWindow
	Location            *Location
	Allergens           []string
	DietaryRestrictions []string
}

// Apply copies the set fields of u onto the listing.
func (f *Food) Apply(u FoodUpdate) {
	if u.Title != nil {
		f.Title = *u.Title
	}
	if u.Description != nil {
		f.Description = *u.Description
	}
	if u.Quantity != nil {
		f.Quantity = *u.Quantity
	}
	if u.Unit != nil {
		f.Unit = *u.Unit
	}
	if u.Category != nil {
		f.Category = *u.Category
	}
	if u.ExpiryDate != nil {
		f.ExpiryDate = *u.ExpiryDate
	}
	if u.PickupTime != nil {
		f.PickupTime = *u.PickupTime
	}
	if u.Location != nil {
		f.Location = *u.Location
	}
	if u.Allergens != nil {
		f.Allergens = u.Allergens
	}
	if u.DietaryRestrictions != nil {
		f.DietaryRestrictions = u.DietaryRestrictions
	}
}

// Reserve marks the listing as matched to a shelter and volunteer.
func (f *Food) Reserve(shelterID, volunteerID string) {
	f.Status = FoodStatusReserved
	f.MatchedShelterID = shelterID
	f.AssignedVolunteerID = volunteerID
}

// Release returns the listing to the matchable pool.
func (f *Food) Release() {
	f.Status = FoodStatusAvailable
	f.MatchedShelterID = ""
	f.AssignedVolunteerID = ""
}
