// Package cloth implements a mass-spring cloth draped over a static sphere.
//
// The package is split along the frame pipeline:
//
//   - [BuildGrid]: regular vertex grid plus the fixed-stride spring list
//   - [State]: per-vertex position and velocity buffers
//   - [Parameters]: per-frame constants (timestep, sphere, material)
//   - [ForceStage]: spring, damping and gravity forces, velocity update
//   - [IntegrationStage]: position advance and sphere projection
//   - [Simulator]: runs both stages as barrier-ordered parallel dispatches
//
// # Spring layout
//
// Every vertex owns exactly [SpringsPerVertex] consecutive slots in
// [Topology.Springs]. Slots 0-3 are structural, 4-7 shear, 8-11 bend. Slots
// whose neighbour falls off the grid hold [Topology.Sentinel] and are skipped
// by the force kernel.
//
// # Example
//
//	topo, _ := cloth.BuildGrid(25, 35, mgl32.Vec3{0, 10, 0})
//	sim, _ := cloth.NewSimulator(topo, cloth.DefaultMaterial(), cloth.DefaultSphere())
//	for i := 0; i < 600; i++ {
//	    if err := sim.Step(1.0 / 60); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// A Simulator is NOT safe for concurrent use. Step parallelises internally;
// readers of [Simulator.Positions] must not overlap a Step.
package cloth
