// Package metrics observes committed cloth states and reduces them to
// scalars for plots, run files and the live view.
package metrics

import "github.com/san-kum/clothsim/internal/cloth"

// Metric accumulates observations of successive committed states.
type Metric interface {
	Name() string
	Observe(st *cloth.State, t float64)
	Value() float64
	Reset()
}

// Default returns the metric set recorded by headless runs.
func Default(topo *cloth.Topology, m cloth.Material, s cloth.Sphere) []Metric {
	return []Metric{
		NewEnergy(EnergyKinetic, topo, m),
		NewEnergy(EnergyPotential, topo, m),
		NewEnergy(EnergyElastic, topo, m),
		NewEnergy(EnergyTotal, topo, m),
		NewMaxStretch(topo),
		NewContacts(s, DefaultContactTolerance),
		NewStability(DefaultSpeedLimit),
	}
}

// Names returns the metric names in order.
func Names(ms []Metric) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}

// Values returns the current metric values in order.
func Values(ms []Metric) []float64 {
	vals := make([]float64, len(ms))
	for i, m := range ms {
		vals[i] = m.Value()
	}
	return vals
}
