package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/statichost-go/internal/core/domain"
)

// RuleCounter reports the number of compiled rules of each kind.
// *routing.RuleSet satisfies it.
type RuleCounter interface {
	CountByKind() map[domain.Kind]int
}

// RuleCollector exports statichost_rules{kind} from a rule table.
// The table is immutable, so values are read at scrape time without
// locking.
type RuleCollector struct {
	rules RuleCounter
	desc  *prometheus.Desc
}

// NewRuleCollector creates a collector over rules.
func NewRuleCollector(rules RuleCounter) *RuleCollector {
	return &RuleCollector{
		rules: rules,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "rules"),
			"Compiled routing rules by kind.",
			[]string{"kind"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *RuleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *RuleCollector) Collect(ch chan<- prometheus.Metric) {
	for kind, n := range c.rules.CountByKind() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), string(kind))
	}
}
