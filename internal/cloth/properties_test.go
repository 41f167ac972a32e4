package cloth_test

import (
	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/dispatch"
)

var _ = Describe("Simulator", func() {
	var (
		topo *cloth.Topology
		sim  *cloth.Simulator
	)

	BeforeEach(func() {
		var err error
		topo, err = cloth.BuildGrid(25, 35, mgl32.Vec3{0, 12, 0})
		Expect(err).NotTo(HaveOccurred())
		sim, err = cloth.NewSimulator(topo, cloth.DefaultMaterial(), cloth.DefaultSphere())
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps one spring block per vertex", func() {
		Expect(topo.Springs).To(HaveLen(12 * topo.VertexCount()))
		for v := 0; v < topo.VertexCount(); v++ {
			for _, s := range topo.SpringsOf(v) {
				Expect(s.Origin).To(BeEquivalentTo(v))
			}
		}
	})

	It("never commits a vertex inside the sphere", func() {
		sphere := sim.Sphere()
		for i := 0; i < 240; i++ {
			Expect(sim.Step(1.0 / 60)).To(Succeed())
		}
		for _, p := range sim.Positions() {
			Expect(p.Sub(sphere.Center).Len()).To(BeNumerically(">=", sphere.Radius-1e-3))
		}
	})

	It("drapes over the sphere instead of falling through", func() {
		for i := 0; i < 300; i++ {
			Expect(sim.Step(1.0 / 60)).To(Succeed())
		}
		centre := sim.Positions()[12*25+12]
		Expect(centre.Y()).To(BeNumerically("~", 10, 0.1))
		Expect(sim.State().IsValid()).To(BeTrue())
	})

	It("does not depend on the number of workers", func() {
		other, err := cloth.NewSimulator(topo, cloth.DefaultMaterial(), cloth.DefaultSphere(),
			cloth.WithDispatcher(dispatch.New(1000, 1)))
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 60; i++ {
			Expect(sim.Step(1.0 / 60)).To(Succeed())
			Expect(other.Step(1.0 / 60)).To(Succeed())
		}
		Expect(other.Positions()).To(Equal(sim.Positions()))
	})

	Context("with a zero timestep", func() {
		It("leaves positions unchanged", func() {
			before := sim.Snapshot(nil)
			Expect(sim.Step(0)).To(Succeed())
			Expect(sim.Positions()).To(Equal(before.Positions))
			Expect(sim.Frame()).To(BeEquivalentTo(1))
		})
	})

	Context("with invalid input", func() {
		It("rejects a negative timestep without advancing", func() {
			Expect(sim.Step(-1)).To(MatchError(cloth.ErrInvalidTimestep))
			Expect(sim.Frame()).To(BeZero())
		})

		It("rejects a one-vertex grid", func() {
			_, err := cloth.BuildGrid(1, 35, mgl32.Vec3{})
			Expect(err).To(MatchError(cloth.ErrInvalidResolution))
		})
	})
})
