package dashboard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/consorcioci/viernes/client"
)

const coordsField = "coordenadas"

var (
	coordSep   = regexp.MustCompile(`[;,\s]+`)
	leadingNum = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// Point is a WGS84 position.
type Point struct {
	Lat float64
	Lng float64
}

// MapPoint is a consultation record placed on a map.
type MapPoint struct {
	Point
	Name     string
	Address  string
	ClientID string
}

// ParseCoordinates reads "lat,lng", "lat lng" or "lat;lng". Each part may
// carry trailing garbage after the number, which is ignored.
func ParseCoordinates(s string) (Point, bool) {
	parts := coordSep.Split(strings.TrimSpace(s), -1)
	nums := make([]string, 0, 2)
	for _, p := range parts {
		if p != "" {
			nums = append(nums, p)
		}
	}
	if len(nums) < 2 {
		return Point{}, false
	}
	lat, ok := parseLeadingFloat(nums[0])
	if !ok {
		return Point{}, false
	}
	lng, ok := parseLeadingFloat(nums[1])
	if !ok {
		return Point{}, false
	}
	return Point{Lat: lat, Lng: lng}, true
}

func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNum.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MapPointFor builds the map marker of a tiempos record from its
// coordinates field. It reports false when the record has no usable
// coordinates.
func MapPointFor(rec client.Record) (MapPoint, bool) {
	p, ok := ParseCoordinates(rec.Text(coordsField))
	if !ok {
		return MapPoint{}, false
	}
	name := fmt.Sprintf("Cliente %s", rec.Text("cliente"))
	if svc := rec.Text("servicio"); svc != "" {
		name = "Servicio " + svc
	}
	return MapPoint{
		Point:    p,
		Name:     name,
		Address:  rec.Text("ubicacion"),
		ClientID: rec.Text("cliente"),
	}, true
}
