package domain

// CloneTrip returns a deep copy of the trip. Snapshots handed to readers must
// never alias the store's internal slices.
func CloneTrip(t Trip) Trip {
	cp := t
	if t.CountryCodes != nil {
		cp.CountryCodes = append([]string(nil), t.CountryCodes...)
	}
	if t.Days != nil {
		cp.Days = make([]Day, len(t.Days))
		for i, d := range t.Days {
			cp.Days[i] = CloneDay(d)
		}
	}
	return cp
}

func CloneDay(d Day) Day {
	cp := d
	if d.Destinations != nil {
		cp.Destinations = make([]Destination, len(d.Destinations))
		for i, dest := range d.Destinations {
			cp.Destinations[i] = CloneDestination(dest)
		}
	}
	if d.BaseLocations != nil {
		cp.BaseLocations = make([]BaseLocation, len(d.BaseLocations))
		for i, b := range d.BaseLocations {
			cp.BaseLocations[i] = CloneBaseLocation(b)
		}
	}
	return cp
}

func CloneDestination(d Destination) Destination {
	cp := d
	cp.City = cloneStringPtr(d.City)
	cp.Rating = cloneFloatPtr(d.Rating)
	cp.Cost = cloneFloatPtr(d.Cost)
	cp.Notes = cloneStringPtr(d.Notes)
	if d.Links != nil {
		cp.Links = append([]Link(nil), d.Links...)
	}
	return cp
}

func CloneBaseLocation(b BaseLocation) BaseLocation {
	cp := b
	cp.Context = cloneStringPtr(b.Context)
	cp.City = cloneStringPtr(b.City)
	cp.Notes = cloneStringPtr(b.Notes)
	if b.Links != nil {
		cp.Links = append([]Link(nil), b.Links...)
	}
	return cp
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
