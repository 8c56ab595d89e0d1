package export

import (
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"robostock/internal/types"
)

func formatFloat(v null.Float) string {
	if !types.Known(v) {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}

func formatList(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatNullList writes unknown entries as "nan".
func formatNullList(vals []null.Float) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if types.Known(v) {
			parts[i] = strconv.FormatFloat(v.Float64, 'g', -1, 64)
		} else {
			parts[i] = "nan"
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func parseFloat(s string) (null.Float, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return null.Float{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}, err
	}
	return types.Value(v), nil
}

func parseList(s string) ([]null.Float, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]null.Float, 0, len(parts))
	for _, p := range parts {
		v, err := parseFloat(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
