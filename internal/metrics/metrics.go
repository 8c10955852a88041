// Package metrics собирает показатели работы движка для Prometheus:
// свайпы ленты, решения по квотам и срабатывания деградированного
// пути записи. Показатели отдаются через /metrics (promhttp).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector держит все показатели движка.
type Collector struct {
	swipes        *prometheus.CounterVec
	quotaAllowed  *prometheus.CounterVec
	quotaDenied   *prometheus.CounterVec
	fallbackWrite prometheus.Counter
	feedExhausted prometheus.Counter
}

// New создаёт и регистрирует показатели в переданном реестре.
// При nil используется реестр по умолчанию.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		swipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_swipes_total",
			Help: "Total number of feed advances by action label",
		}, []string{"action"}),
		quotaAllowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_quota_allowed_total",
			Help: "Total number of allowed quota consumptions",
		}, []string{"action"}),
		quotaDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_quota_denied_total",
			Help: "Total number of denied quota consumptions",
		}, []string{"action"}),
		fallbackWrite: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engagement_quota_fallback_writes_total",
			Help: "Total number of non-atomic read-modify-write persistence fallbacks",
		}),
		feedExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engagement_feed_exhausted_total",
			Help: "Total number of times a session feed ran out of candidates",
		}),
	}
	reg.MustRegister(c.swipes, c.quotaAllowed, c.quotaDenied, c.fallbackWrite, c.feedExhausted)
	return c
}

// IncSwipe учитывает продвижение ленты с меткой действия.
func (c *Collector) IncSwipe(action string) {
	c.swipes.WithLabelValues(action).Inc()
}

// IncQuotaAllowed учитывает разрешённое списание квоты.
func (c *Collector) IncQuotaAllowed(action string) {
	c.quotaAllowed.WithLabelValues(action).Inc()
}

// IncQuotaDenied учитывает отказ в списании квоты.
func (c *Collector) IncQuotaDenied(action string) {
	c.quotaDenied.WithLabelValues(action).Inc()
}

// IncFallbackWrite учитывает срабатывание неатомарного пути записи.
func (c *Collector) IncFallbackWrite() {
	c.fallbackWrite.Inc()
}

// IncFeedExhausted учитывает исчерпание очереди кандидатов.
func (c *Collector) IncFeedExhausted() {
	c.feedExhausted.Inc()
}
