package optim

import (
	"fmt"
	"strconv"
	"strings"
)

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	vals := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range vals {
		vals[i] = lo + float64(i)*step
	}
	vals[n-1] = hi
	return vals
}

// ParseRange parses "name=lo:hi:n" or "name=a,b,c".
func ParseRange(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" || spec == "" {
		return "", nil, fmt.Errorf("optim: range %q: want name=lo:hi:n or name=a,b,c", s)
	}
	if _, known := setters[name]; !known {
		return "", nil, fmt.Errorf("optim: unknown parameter %q (available: %v)", name, ParamNames())
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("optim: range %q: bad lo:hi:n", s)
		}
		return name, Linspace(lo, hi, n), nil
	}

	var vals []float64
	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: range %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}
