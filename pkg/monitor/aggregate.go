package monitor

import (
	"encoding/json"
	"sort"

	"github.com/bankbench/pkg/stats"
)

type series struct {
	cpu    []float64
	memory []float64
	netIn  []float64
	netOut []float64

	initialIn, initialOut float64
	lastIn, lastOut       float64
}

// Aggregator accumulates stats snapshots for the containers it sees.
// A container's first sample sets its network baseline; rates start with
// the second one.
type Aggregator struct {
	containers map[string]*series
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{containers: make(map[string]*series)}
}

// Add folds one snapshot into the per-container series
func (a *Aggregator) Add(samples []Sample) {
	for _, s := range samples {
		c, ok := a.containers[s.Container]
		if !ok {
			c = &series{
				initialIn:  s.NetInKB,
				initialOut: s.NetOutKB,
				lastIn:     s.NetInKB,
				lastOut:    s.NetOutKB,
			}
			a.containers[s.Container] = c
		} else {
			c.netIn = append(c.netIn, s.NetInKB-c.lastIn)
			c.netOut = append(c.netOut, s.NetOutKB-c.lastOut)
			c.lastIn = s.NetInKB
			c.lastOut = s.NetOutKB
		}
		c.cpu = append(c.cpu, s.CPU)
		c.memory = append(c.memory, s.MemoryMiB)
	}
}

// Containers returns the names seen so far, sorted
func (a *Aggregator) Containers() []string {
	names := make([]string, 0, len(a.containers))
	for name := range a.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainerReport summarizes one container over a capture
type ContainerReport struct {
	CPU         stats.Summary
	Memory      stats.Summary
	NetIn       stats.Summary
	NetOut      stats.Summary
	TotalNetIn  float64
	TotalNetOut float64
}

// Totals sums the per-container means and standard deviations
type Totals struct {
	AppVersion   string  `json:"app_version"`
	Endpoint     string  `json:"endpoint"`
	CPUMean      float64 `json:"total_cpu_mean"`
	CPUStdDev    float64 `json:"total_cpu_std_dev"`
	MemoryMean   float64 `json:"total_memory_mean"`
	MemoryStdDev float64 `json:"total_memory_std_dev"`
	NetInMean    float64 `json:"total_net_in_mean"`
	NetInStdDev  float64 `json:"total_net_in_std_dev"`
	NetOutMean   float64 `json:"total_net_out_mean"`
	NetOutStdDev float64 `json:"total_net_out_std_dev"`
}

// Report is the result of one capture. It marshals to a single flat object
// keyed by container name plus "total".
type Report struct {
	Containers map[string]ContainerReport
	Total      Totals
}

// Report reduces everything added so far
func (a *Aggregator) Report(version, endpoint string) *Report {
	r := &Report{
		Containers: make(map[string]ContainerReport, len(a.containers)),
		Total:      Totals{AppVersion: version, Endpoint: endpoint},
	}
	for _, name := range a.Containers() {
		c := a.containers[name]
		cr := ContainerReport{
			CPU:         stats.Describe(c.cpu),
			Memory:      stats.Describe(c.memory),
			NetIn:       stats.Describe(c.netIn),
			NetOut:      stats.Describe(c.netOut),
			TotalNetIn:  c.lastIn - c.initialIn,
			TotalNetOut: c.lastOut - c.initialOut,
		}
		r.Containers[name] = cr

		r.Total.CPUMean += cr.CPU.Mean
		r.Total.CPUStdDev += cr.CPU.StdDev
		r.Total.MemoryMean += cr.Memory.Mean
		r.Total.MemoryStdDev += cr.Memory.StdDev
		r.Total.NetInMean += cr.NetIn.Mean
		r.Total.NetInStdDev += cr.NetIn.StdDev
		r.Total.NetOutMean += cr.NetOut.Mean
		r.Total.NetOutStdDev += cr.NetOut.StdDev
	}
	return r
}

// MarshalJSON writes the container reports and totals side by side
func (r *Report) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Containers)+1)
	for name, c := range r.Containers {
		flat[name] = c.fields()
	}
	flat["total"] = r.Total
	return json.Marshal(flat)
}

func (c ContainerReport) fields() map[string]float64 {
	m := make(map[string]float64, 18)
	put := func(prefix string, s stats.Summary) {
		m[prefix+"_min_value"] = s.Min
		m[prefix+"_max_value"] = s.Max
		m[prefix+"_mean_value"] = s.Mean
		m[prefix+"_std_dev_value"] = s.StdDev
	}
	put("cpu", c.CPU)
	put("memory", c.Memory)
	put("net_in", c.NetIn)
	put("net_out", c.NetOut)
	m["total_net_in"] = c.TotalNetIn
	m["total_net_out"] = c.TotalNetOut
	return m
}
