package metrics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry
}

var (
	mu             sync.RWMutex
	defaultManager = &manager{
		namespace: "default",
		system:    "default",
		registry:  prometheus.NewRegistry(),
	}
)

func RegisterGoMetrics(r prometheus.Registerer) {
	_ = r.Register(collectors.NewGoCollector())
	_ = r.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// SetupMetricsManager points every later New*Vec at registry.
func SetupMetricsManager(ns, system string, registry *prometheus.Registry) {
	mu.Lock()
	defaultManager = &manager{
		namespace: ns,
		system:    system,
		registry:  registry,
	}
	mu.Unlock()
	RegisterGoMetrics(registry)
}

func current() *manager {
	mu.RLock()
	defer mu.RUnlock()
	return defaultManager
}

func MustGetDefaultManager() (string, string, *prometheus.Registry) {
	m := current()
	return m.namespace, m.system, m.registry
}

func blankLabels(labels []string) []string {
	return make([]string, len(labels))
}

func NewCounterVec(name string, labels []string) *prometheus.CounterVec {
	ns, system, registry := MustGetDefaultManager()
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: FmtFixer(ns),
			Subsystem: FmtFixer(system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s count of /%s/%s", name, ns, system),
		},
		labels,
	)
	vec.WithLabelValues(blankLabels(labels)...).Add(0)
	_ = registry.Register(vec)
	return vec
}

func NewHistogramVec(name string, labels []string) *prometheus.HistogramVec {
	ns, system, registry := MustGetDefaultManager()
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: FmtFixer(ns),
			Subsystem: FmtFixer(system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s duration of /%s/%s", name, ns, system),
		},
		labels,
	)
	vec.WithLabelValues(blankLabels(labels)...).Observe(0)
	_ = registry.Register(vec)
	return vec
}

func NewGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	ns, system, registry := MustGetDefaultManager()
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: FmtFixer(ns),
			Subsystem: FmtFixer(system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s gauge of /%s/%s", name, ns, system),
		},
		labels,
	)
	vec.WithLabelValues(blankLabels(labels)...).Add(0)
	_ = registry.Register(vec)
	return vec
}

// DefaultExportHandler serves the registry that was current when it was built.
func DefaultExportHandler() gin.HandlerFunc {
	registry := current().registry
	h := promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

var fixer = strings.NewReplacer(".", "_", "-", "_")

func FmtFixer(in string) string {
	return fixer.Replace(in)
}
