package geo

import (
	"math"
	"strings"

	"freight/internal/domain"
)

const (
	earthRadiusKm = 6371.0

	// defaultCityDistanceKm is returned for city pairs missing from the table.
	defaultCityDistanceKm = 500.0
)

// DistanceSource answers distance queries for pricing and matching. It is an
// interface so the static table can later be swapped for a routing provider
// without touching the scoring logic.
type DistanceSource interface {
	// CityDistance returns the distance in km between two named cities.
	// The lookup is symmetric; unknown pairs fall back to a default.
	CityDistance(from, to string) float64

	// Distance returns the distance in km between two locations, preferring
	// the city table when both cities are known.
	Distance(from, to domain.Location) float64
}

// Haversine returns the great-circle distance in km between two coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// StaticDistanceSource is the in-memory city-distance table used in
// production. Corridor distances are road-calibrated, so they take precedence
// over the raw great-circle figure when both endpoints are known cities.
type StaticDistanceSource struct {
	table map[cityPair]float64
}

type cityPair struct {
	a, b string
}

func normalizePair(from, to string) cityPair {
	a := strings.ToLower(strings.TrimSpace(from))
	b := strings.ToLower(strings.TrimSpace(to))
	if a > b {
		a, b = b, a
	}
	return cityPair{a: a, b: b}
}

// NewStaticDistanceSource returns the distance source seeded with the
// standard intercity table.
func NewStaticDistanceSource() *StaticDistanceSource {
	s := &StaticDistanceSource{table: make(map[cityPair]float64)}
	for _, e := range cityDistances {
		s.table[normalizePair(e.from, e.to)] = e.km
	}
	return s
}

// CityDistance returns the tabled distance between two cities, 0 for the
// same city, and the default for unknown pairs.
func (s *StaticDistanceSource) CityDistance(from, to string) float64 {
	p := normalizePair(from, to)
	if p.a == p.b {
		return 0
	}
	if km, ok := s.table[p]; ok {
		return km
	}
	return defaultCityDistanceKm
}

// Distance prefers the city table when both locations carry known city
// names and falls back to haversine on raw coordinates.
func (s *StaticDistanceSource) Distance(from, to domain.Location) float64 {
	if from.City != "" && to.City != "" {
		p := normalizePair(from.City, to.City)
		if p.a == p.b {
			return 0
		}
		if km, ok := s.table[p]; ok {
			return km
		}
	}
	return Haversine(from.Lat, from.Lng, to.Lat, to.Lng)
}

var _ DistanceSource = (*StaticDistanceSource)(nil)

// cityDistances lists road distances in km for the corridors the platform
// operates on.
var cityDistances = []struct {
	from, to string
	km       float64
}{
	{"Riyadh", "Jeddah", 950},
	{"Riyadh", "Dammam", 400},
	{"Riyadh", "Mecca", 870},
	{"Riyadh", "Medina", 850},
	{"Riyadh", "Buraidah", 330},
	{"Riyadh", "Abha", 1000},
	{"Riyadh", "Tabuk", 1300},
	{"Jeddah", "Mecca", 80},
	{"Jeddah", "Medina", 420},
	{"Jeddah", "Taif", 170},
	{"Jeddah", "Abha", 625},
	{"Jeddah", "Dammam", 1350},
	{"Mecca", "Medina", 450},
	{"Mecca", "Taif", 90},
	{"Dammam", "Khobar", 20},
	{"Dammam", "Jubail", 95},
	{"Dammam", "Hofuf", 150},
	{"Medina", "Tabuk", 680},
	{"Buraidah", "Hail", 240},
}
