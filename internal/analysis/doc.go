// Package analysis looks at recorded metric series in the frequency domain.
//
// A draped cloth that has not settled keeps swinging around the collider;
// [Analyze] finds the dominant frequency of that motion from any sampled
// metric, usually kinetic energy:
//
//	spec, err := analysis.Analyze(series.Column("kinetic"), dt*float64(sampleEvery))
//	fmt.Printf("%.3f hz\n", spec.Dominant)
package analysis
