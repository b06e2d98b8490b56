package sim_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/juliablanchard/mizer/internal/sim"
)

func TestEffortRegularizer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Effort Regularizer Suite")
}

var _ = Describe("Regularize", func() {
	gears := []string{"trawl", "longline"}

	Describe("constant effort", func() {
		It("broadcasts a scalar to every gear and step", func() {
			table, err := sim.ConstantEffort(0.5).Regularize(gears, 10, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Rows).To(HaveLen(11))
			Expect(table.Times[0]).To(Equal(0.0))
			Expect(table.Times[10]).To(BeNumerically("~", 10, 1e-12))
			for _, row := range table.Rows {
				Expect(row).To(Equal([]float64{0.5, 0.5}))
			}
		})

		It("maps named gear efforts into canonical order", func() {
			spec := sim.GearEffort(map[string]float64{"longline": 0.2, "trawl": 0.8, "seine": 9})
			table, err := spec.Regularize(gears, 5, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Rows[0]).To(Equal([]float64{0.8, 0.2}))
		})

		It("rejects a gear map that misses model gears", func() {
			_, err := sim.GearEffort(map[string]float64{"trawl": 1}).Regularize(gears, 5, 1, 1)
			Expect(err).To(MatchError(ContainSubstring("missing longline")))
		})

		It("rejects an unnamed vector of the wrong length", func() {
			_, err := sim.VectorEffort([]float64{1, 2, 3}).Regularize(gears, 5, 1, 1)
			Expect(err).To(MatchError(ContainSubstring("length 3")))
		})
	})

	Describe("time-indexed schedules", func() {
		It("is the identity on a schedule already at dt spacing", func() {
			times := []float64{0, 0.1, 0.2, 0.3}
			rows := [][]float64{{1, 0}, {2, 0}, {3, 0}, {4, 0}}
			table, err := sim.VaryingEffort(times, gears, rows).Regularize(gears, 0, 0.1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Rows).To(HaveLen(4))
			for i := range rows {
				Expect(table.Rows[i]).To(Equal(rows[i]))
			}
		})

		It("forward-fills a coarser schedule into a step function", func() {
			times := []float64{0, 2, 4}
			rows := [][]float64{{1, 9}, {2, 9}, {3, 9}}
			table, err := sim.VaryingEffort(times, gears, rows).Regularize(gears, 0, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Rows).To(HaveLen(5))
			first := make([]float64, len(table.Rows))
			for i, row := range table.Rows {
				first[i] = row[0]
			}
			Expect(first).To(Equal([]float64{1, 1, 2, 2, 3}))
		})

		It("spans from the first to the last specified time", func() {
			times := []float64{5, 7}
			rows := [][]float64{{1, 1}, {2, 2}}
			table, err := sim.VaryingEffort(times, gears, rows).Regularize(gears, 0, 0.5, 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Times[0]).To(Equal(5.0))
			Expect(table.Times[len(table.Times)-1]).To(BeNumerically("~", 7, 1e-9))
		})

		It("reorders schedule columns to the model's gear order", func() {
			times := []float64{0, 1}
			schedGears := []string{"longline", "trawl"}
			rows := [][]float64{{0.2, 0.8}, {0.4, 0.6}}
			table, err := sim.VaryingEffort(times, schedGears, rows).Regularize(gears, 0, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Gears).To(Equal(gears))
			Expect(table.Rows[0]).To(Equal([]float64{0.8, 0.2}))
			Expect(table.Rows[1]).To(Equal([]float64{0.6, 0.4}))
		})

		It("rejects a decreasing time axis", func() {
			times := []float64{0, 2, 1}
			rows := [][]float64{{1, 1}, {1, 1}, {1, 1}}
			_, err := sim.VaryingEffort(times, gears, rows).Regularize(gears, 0, 1, 1)
			Expect(err).To(MatchError(ContainSubstring("decreases")))
		})

		It("rejects schedule gears that do not cover the model", func() {
			times := []float64{0, 1}
			rows := [][]float64{{1}, {1}}
			_, err := sim.VaryingEffort(times, []string{"trawl"}, rows).Regularize(gears, 0, 1, 1)
			Expect(err).To(MatchError(ContainSubstring("missing longline")))
		})

		It("rejects an empty schedule", func() {
			_, err := sim.VaryingEffort(nil, gears, nil).Regularize(gears, 0, 1, 1)
			Expect(err).To(MatchError(ContainSubstring("no time points")))
		})
	})

	Describe("save stride", func() {
		It("accepts a t_save that is an inexact float multiple of dt", func() {
			table, err := sim.ConstantEffort(0).Regularize(gears, 3, 0.1, 0.3)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.SaveStride).To(Equal(3))
		})

		It("rejects a t_save that is not a multiple of dt", func() {
			_, err := sim.ConstantEffort(0).Regularize(gears, 3, 0.1, 0.25)
			Expect(err).To(MatchError(ContainSubstring("not a positive integer multiple")))
		})

		It("rejects a t_save below dt", func() {
			_, err := sim.ConstantEffort(0).Regularize(gears, 3, 0.1, 0.01)
			Expect(err).To(HaveOccurred())
		})

		It("counts save points including the initial one", func() {
			table, err := sim.ConstantEffort(0).Regularize(gears, 10, 1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.NumSaved()).To(Equal(6))
		})
	})
})
