package manager

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/squad-analytics/checkout-capacity/pkg/config"
	"github.com/squad-analytics/checkout-capacity/pkg/solver"
)

// 300 customers/h, 90 s per customer: mu = 40/h, stability floor = 8
func busyRow() config.RowSpec {
	return config.RowSpec{
		Store:       "loja-01",
		Weekday:     "sat",
		Period:      "10:00",
		ArrivalRate: 300,
		ServiceTime: 90,
		Current:     12,
		Max:         15,
		Test:        0,
		SLAMeanWait: 0.3, // 0.005 h
		SLAPercent:  90,
		SLAMaxWait:  2,
	}
}

var _ = Describe("Manager", func() {
	var (
		searcher *solver.Searcher
		row      config.RowSpec
	)

	BeforeEach(func() {
		searcher = solver.NewSearcher(nil, solver.Options{Backoff: config.Nearest, Buckets: 5})
		row = busyRow()
	})

	Context("Start columns", func() {
		It("should name and read each column", func() {
			Expect(StartCurrent.String()).To(Equal("current"))
			Expect(StartMax.String()).To(Equal("max"))
			Expect(StartTest.String()).To(Equal("test"))
			Expect(NumStarts.String()).To(Equal("unknown"))

			Expect(StartCurrent.Of(&row)).To(Equal(12))
			Expect(StartMax.Of(&row)).To(Equal(15))
			Expect(StartTest.Of(&row)).To(Equal(0))
		})
	})

	Context("SLAFor", func() {
		It("should convert wait thresholds to hours", func() {
			sla := NewManager(searcher, config.MeanWait).SLAFor(&row)
			Expect(sla.Kind).To(Equal(config.MeanWait))
			Expect(sla.Threshold).To(BeNumerically("~", 0.005, 1e-12))

			sla = NewManager(searcher, config.ConditionalWait).SLAFor(&row)
			Expect(sla.Kind).To(Equal(config.ConditionalWait))
			Expect(sla.Threshold).To(BeNumerically("~", 0.005, 1e-12))
		})

		It("should use the percentage and max wait for percent-served", func() {
			sla := NewManager(searcher, config.PercentServed).SLAFor(&row)
			Expect(sla.Kind).To(Equal(config.PercentServed))
			Expect(sla.Threshold).To(Equal(90.0))
			Expect(sla.MaxWait).To(BeNumerically("~", 2.0/60, 1e-12))
		})
	})

	Context("SizeRow", func() {
		It("should reach the same capacity from every starting column", func() {
			result := NewManager(searcher, config.MeanWait).SizeRow(3, row)
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeFalse())
			Expect(result.Index).To(Equal(3))

			for s := StartCurrent; s < NumStarts; s++ {
				Expect(result.Errors[s]).NotTo(HaveOccurred())
				Expect(result.Result(s)).NotTo(BeNil())
				Expect(result.Result(s).Servers).To(Equal(10), "start %s", s)
				Expect(result.Result(s).MeetsSLA).To(BeTrue())
			}
			Expect(result.Result(StartCurrent).Status).To(Equal(solver.Stable))
			Expect(result.Result(StartTest).Status).To(Equal(solver.Unstable))
			Expect(result.Result(StartTest).Warnings).NotTo(BeEmpty())
		})

		It("should size percent-served rows", func() {
			result := NewManager(searcher, config.PercentServed).SizeRow(0, row)
			Expect(result.Failed()).To(BeFalse())
			for s := StartCurrent; s < NumStarts; s++ {
				Expect(result.Result(s).Servers).To(Equal(9))
				Expect(result.Result(s).Metric).To(BeNumerically(">=", 90))
			}
		})

		It("should respect the minimum PDVs of the row", func() {
			row.Min = 13
			result := NewManager(searcher, config.MeanWait).SizeRow(0, row)
			Expect(result.Failed()).To(BeFalse())
			Expect(result.Result(StartCurrent).Servers).To(Equal(13))
			Expect(result.Result(StartMax).Servers).To(Equal(13))
			Expect(result.Result(StartTest).Servers).To(Equal(13))
		})

		It("should fail rows with invalid rates", func() {
			row.ServiceTime = 0
			result := NewManager(searcher, config.MeanWait).SizeRow(0, row)
			Expect(result.Err).To(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.Result(StartCurrent)).To(BeNil())
		})

		It("should fail rows whose minimum exceeds the maximum", func() {
			row.Min = 20
			result := NewManager(searcher, config.MeanWait).SizeRow(0, row)
			Expect(result.Err).To(HaveOccurred())
		})

		It("should reject starting counts above the capacity limit without searching", func() {
			row.Max = 2000000
			bounded := solver.NewSearcher(nil, solver.Options{MaxServers: 50})
			result := NewManager(bounded, config.MeanWait).SizeRow(0, row)
			Expect(result.Err).To(MatchError(ContainSubstring("maxServers=50")))
			for s := StartCurrent; s < NumStarts; s++ {
				Expect(result.Result(s)).To(BeNil())
			}
		})

		It("should keep partial results when a search does not converge", func() {
			// conditional wait never drops below 1/lambda = 0.2 min
			row.ArrivalRate = 300
			row.SLAMeanWait = 0.1
			bounded := solver.NewSearcher(nil, solver.Options{MaxIterations: 5})
			result := NewManager(bounded, config.ConditionalWait).SizeRow(0, row)
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			for s := StartCurrent; s < NumStarts; s++ {
				Expect(errors.Is(result.Errors[s], solver.ErrSearchDidNotConverge)).To(BeTrue())
				Expect(result.Result(s)).NotTo(BeNil())
				Expect(result.Result(s).MeetsSLA).To(BeFalse())
			}
		})
	})

	Context("JSON", func() {
		It("should key results by start and render errors as strings", func() {
			m := NewManager(searcher, config.MeanWait)
			data, err := json.Marshal(m.SizeRow(0, row))
			Expect(err).NotTo(HaveOccurred())

			var decoded map[string]interface{}
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
			Expect(decoded).To(HaveKey("starts"))
			Expect(decoded["starts"]).To(HaveKey("current"))
			Expect(decoded).NotTo(HaveKey("error"))

			row.ServiceTime = -1
			data, err = json.Marshal(m.SizeRow(0, row))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("invalid rates"))
		})
	})

	Context("TotalServers", func() {
		It("should sum chosen capacities and skip failed rows", func() {
			m := NewManager(searcher, config.MeanWait)
			bad := busyRow()
			bad.ArrivalRate = -1
			results := []*RowResult{m.SizeRow(0, row), m.SizeRow(1, bad), m.SizeRow(2, row), nil}
			Expect(TotalServers(results, StartCurrent)).To(Equal(20))
			Expect(TotalServers(results, StartTest)).To(Equal(20))
		})
	})
})
