package models

// LocationMode описывает, как была получена текущая позиция.
type LocationMode string

const (
	LocationModeFixed  LocationMode = "fixed"
	LocationModeGPS    LocationMode = "gps"
	LocationModeManual LocationMode = "manual"
)

// Valid проверяет, что режим известен
func (m LocationMode) Valid() bool {
	switch m {
	case LocationModeFixed, LocationModeGPS, LocationModeManual:
		return true
	}
	return false
}

// Location - неизменяемый снимок местоположения; его заменяют целиком, а не изменяют
type Location struct {
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	City      string       `json:"city,omitempty"`
	State     string       `json:"state,omitempty"`
	Country   string       `json:"country,omitempty"`
	Mode      LocationMode `json:"mode"`
}

// City - запись из списка городов для ручного выбора
type City struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}

// Location преобразует город в местоположение режима manual
func (c City) Location() Location {
	country := c.Country
	if country == "" {
		country = "Global"
	}
	return Location{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		City:      c.Name,
		State:     c.State,
		Country:   country,
		Mode:      LocationModeManual,
	}
}

// DefaultPreset - пресет, с которого начинается каждая сессия
const DefaultPreset = "Chennai HQ"

var presetOrder = []string{"Chennai HQ", "Bangalore Hub", "Mumbai West", "Beijing Sector"}

var presets = map[string]Location{
	"Chennai HQ":     {Latitude: 13.0827, Longitude: 80.2707, City: "Chennai", State: "Tamil Nadu", Country: "India", Mode: LocationModeFixed},
	"Bangalore Hub":  {Latitude: 12.9716, Longitude: 77.5946, City: "Bangalore", State: "Karnataka", Country: "India", Mode: LocationModeFixed},
	"Mumbai West":    {Latitude: 19.0760, Longitude: 72.8777, City: "Mumbai", State: "Maharashtra", Country: "India", Mode: LocationModeFixed},
	"Beijing Sector": {Latitude: 39.9042, Longitude: 116.4074, City: "Beijing", State: "Beijing", Country: "China", Mode: LocationModeFixed},
}

var searchableCities = []City{
	{Name: "Chennai", Latitude: 13.0827, Longitude: 80.2707, State: "Tamil Nadu", Country: "India"},
	{Name: "Bangalore", Latitude: 12.9716, Longitude: 77.5946, State: "Karnataka", Country: "India"},
	{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, State: "Maharashtra", Country: "India"},
	{Name: "Delhi", Latitude: 28.6139, Longitude: 77.2090, State: "Delhi", Country: "India"},
	{Name: "Hyderabad", Latitude: 17.3850, Longitude: 78.4867, State: "Telangana", Country: "India"},
	{Name: "Kolkata", Latitude: 22.5726, Longitude: 88.3639, State: "West Bengal", Country: "India"},
	{Name: "Beijing", Latitude: 39.9042, Longitude: 116.4074, State: "Beijing", Country: "China"},
	{Name: "Shanghai", Latitude: 31.2304, Longitude: 121.4737, State: "Shanghai", Country: "China"},
	{Name: "Tokyo", Latitude: 35.6762, Longitude: 139.6503, State: "Tokyo", Country: "Japan"},
	{Name: "Singapore", Latitude: 1.3521, Longitude: 103.8198, State: "Singapore", Country: "Singapore"},
	{Name: "Dubai", Latitude: 25.2048, Longitude: 55.2708, State: "Dubai", Country: "UAE"},
	{Name: "London", Latitude: 51.5074, Longitude: -0.1278, State: "London", Country: "UK"},
	{Name: "Paris", Latitude: 48.8566, Longitude: 2.3522, State: "Paris", Country: "France"},
	{Name: "Berlin", Latitude: 52.5200, Longitude: 13.4050, State: "Berlin", Country: "Germany"},
	{Name: "Madrid", Latitude: 40.4168, Longitude: -3.7038, State: "Madrid", Country: "Spain"},
	{Name: "Rome", Latitude: 41.9028, Longitude: 12.4964, State: "Lazio", Country: "Italy"},
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, State: "NY", Country: "USA"},
	{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437, State: "CA", Country: "USA"},
	{Name: "Mexico City", Latitude: 19.4326, Longitude: -99.1332, State: "CDMX", Country: "Mexico"},
	{Name: "São Paulo", Latitude: -23.5505, Longitude: -46.6333, State: "SP", Country: "Brazil"},
	{Name: "Sydney", Latitude: -33.8688, Longitude: 151.2093, State: "NSW", Country: "Australia"},
	{Name: "Moscow", Latitude: 55.7558, Longitude: 37.6173, State: "Moscow", Country: "Russia"},
	{Name: "Cairo", Latitude: 30.0444, Longitude: 31.2357, State: "Cairo", Country: "Egypt"},
}

// Preset возвращает пресет по имени
func Preset(name string) (Location, bool) {
	loc, ok := presets[name]
	return loc, ok
}

// PresetNames возвращает имена пресетов в порядке отображения
func PresetNames() []string {
	return append([]string(nil), presetOrder...)
}

// SearchableCities возвращает копию списка городов
func SearchableCities() []City {
	return append([]City(nil), searchableCities...)
}

// FindCity ищет город по точному имени
func FindCity(name string) (City, bool) {
	for _, c := range searchableCities {
		if c.Name == name {
			return c, true
		}
	}
	return City{}, false
}

// GPSLocation строит местоположение по GPS без обратного геокодирования
func GPSLocation(lat, lon float64) Location {
	return Location{
		Latitude:  lat,
		Longitude: lon,
		City:      "Detected Area",
		State:     "GPS Active",
		Country:   "Local",
		Mode:      LocationModeGPS,
	}
}
