// Package metrics exposes decoder statistics to Prometheus.
package metrics

import (
	"sync"

	vorbis "github.com/llehouerou/go-vorbis"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vorbis"

// StatsSource is implemented by *vorbis.Decoder.
type StatsSource interface {
	Stats() vorbis.Stats
}

var (
	packetsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "decoder", "packets_total"),
		"Packets read after the headers. Short and corrupt packets whose mode decoded also count as audio.",
		[]string{"stream", "kind"}, nil,
	)
	resyncsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "decoder", "resyncs_total"),
		"Packets that followed a loss of sync.",
		[]string{"stream"}, nil,
	)
	samplesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "decoder", "samples_total"),
		"Sample frames decoded.",
		[]string{"stream"}, nil,
	)
	clippedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "decoder", "clipped_samples_total"),
		"Samples limited by clipping.",
		[]string{"stream"}, nil,
	)
	bitsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "container", "bits_total"),
		"Bits read from the container, by kind.",
		[]string{"stream", "kind"}, nil,
	)
)

// Collector reports the statistics of a set of decoders. Each decoder is
// labelled with the name it was added under.
//
// Collect calls Stats on every decoder, so it must not run while a decoder
// is being read from another goroutine. Register the collector with a
// registry that is gathered between reads, or add decoders only once they
// are finished.
type Collector struct {
	mu      sync.Mutex
	sources map[string]StatsSource
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{sources: make(map[string]StatsSource)}
}

// Add starts reporting src under name, replacing any source of that name.
func (c *Collector) Add(name string, src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = src
}

// Remove stops reporting the source added under name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- packetsDesc
	ch <- resyncsDesc
	ch <- samplesDesc
	ch <- clippedDesc
	ch <- bitsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, src := range c.sources {
		s := src.Stats()
		counter := func(d *prometheus.Desc, v int64, labels ...string) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), append([]string{name}, labels...)...)
		}
		counter(packetsDesc, s.AudioPackets, "audio")
		counter(packetsDesc, s.IgnoredPackets, "ignored")
		counter(packetsDesc, s.CorruptPackets, "corrupt")
		counter(packetsDesc, s.ShortPackets, "short")
		counter(resyncsDesc, s.Resyncs)
		counter(samplesDesc, s.Samples)
		counter(clippedDesc, s.ClippedSamples)
		counter(bitsDesc, s.PacketBits, "packet")
		counter(bitsDesc, s.OverheadBits, "overhead")
		counter(bitsDesc, s.WasteBits, "waste")
	}
}
