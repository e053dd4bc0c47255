package pricing

import (
	"github.com/dondendo89/Prezzibenzina/internal/feed"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
)

// Resolve reconciles one feed record with the registry entry and previously
// stored state for the same station.
//
// Every descriptive field follows a registry → previous-state → empty
// precedence chain; fuel type alone is feed-authoritative (feed → registry →
// previous). The boolean result is false when the record resolves to missing
// or placeholder (0,0) coordinates: such records are excluded from
// persistence so the map never accumulates markers at the origin.
func Resolve(rec feed.Record, reg *registry.Station, prev *State) (Resolved, bool) {
	out := Resolved{ID: rec.StationID, Price: rec.Price}

	for _, field := range []struct {
		dst     *string
		sources []string
	}{
		{&out.Name, []string{regString(reg, func(s *registry.Station) string { return s.Name }), prevString(prev, func(s *State) string { return s.Name })}},
		{&out.Municipality, []string{regString(reg, func(s *registry.Station) string { return s.Municipality }), prevString(prev, func(s *State) string { return s.Municipality })}},
		{&out.Province, []string{regString(reg, func(s *registry.Station) string { return s.Province }), prevString(prev, func(s *State) string { return s.Province })}},
		{&out.FuelType, []string{rec.FuelType, regString(reg, func(s *registry.Station) string { return s.FuelType }), prevString(prev, func(s *State) string { return s.FuelType })}},
	} {
		*field.dst = firstNonEmpty(field.sources)
	}

	lat := firstCoord(regCoord(reg, func(s *registry.Station) *float64 { return s.Lat }), prevCoord(prev, func(s *State) float64 { return s.Lat }))
	lon := firstCoord(regCoord(reg, func(s *registry.Station) *float64 { return s.Lon }), prevCoord(prev, func(s *State) float64 { return s.Lon }))
	if lat == nil || lon == nil || *lat == 0 || *lon == 0 {
		return out, false
	}
	out.Lat = *lat
	out.Lon = *lon
	return out, true
}

func firstNonEmpty(vals []string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstCoord(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func regString(reg *registry.Station, get func(*registry.Station) string) string {
	if reg == nil {
		return ""
	}
	return get(reg)
}

func prevString(prev *State, get func(*State) string) string {
	if prev == nil {
		return ""
	}
	return get(prev)
}

func regCoord(reg *registry.Station, get func(*registry.Station) *float64) *float64 {
	if reg == nil {
		return nil
	}
	return get(reg)
}

func prevCoord(prev *State, get func(*State) float64) *float64 {
	if prev == nil {
		return nil
	}
	v := get(prev)
	return &v
}
