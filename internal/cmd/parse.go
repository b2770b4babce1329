package cmd

import (
	"strconv"
	"strings"

	"github.com/vvatanabe/scm"
)

const (
	defaultCondition = scm.ConditionGood
	defaultStatus    = scm.StatusCreated
)

func parseInput(input string) (command string, params []string) {
	input = strings.TrimSpace(input)
	arr := strings.Fields(input)

	if len(arr) == 0 {
		return "", nil
	}

	command = strings.ToLower(arr[0])

	if len(arr) > 1 {
		params = make([]string, len(arr)-1)
		for i := 1; i < len(arr); i++ {
			params[i-1] = strings.TrimSpace(arr[i])
		}
	}
	return command, params
}

// parseLocation accepts "lat,lng".
func parseLocation(s string) (scm.Location, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return scm.Location{}, scm.InvalidValueError{Field: "location", Value: s}
	}
	return parseCoordinates(lat, lng)
}

func parseCoordinates(lat, lng string) (scm.Location, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || la < -90 || la > 90 {
		return scm.Location{}, scm.InvalidValueError{Field: "latitude", Value: lat}
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil || ln < -180 || ln > 180 {
		return scm.Location{}, scm.InvalidValueError{Field: "longitude", Value: lng}
	}
	return scm.Location{Lat: la, Lng: ln}, nil
}

func parseQuantity(s string) (float64, error) {
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || q < 0 {
		return 0, scm.InvalidValueError{Field: "quantity", Value: s}
	}
	return q, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
