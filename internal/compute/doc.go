// Package compute runs the cloth stages on a selectable backend.
//
// Two backends implement [Backend]:
//
//   - cpu: [cloth.Simulator] with the workgroup dispatcher
//   - opengl: GLSL 4.3 compute shaders, one dispatch per stage with a
//     shader-storage barrier in between
//
// The OpenGL backend needs a current GL context, which the gui package
// creates. Build with -tags nogl to leave it out:
//
//	backend, err := compute.Select("auto", sim, log)
//	if err != nil {
//		return err
//	}
//	defer backend.Cleanup()
//	for !done {
//		if err := backend.Step(dt); err != nil {
//			return err
//		}
//		draw(backend.Positions())
//	}
package compute
