package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	alertsIngestedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "petwatch",
		Subsystem: "alerts",
		Name:      "ingested_total",
		Help:      "Number of alert rows inserted into the ledger.",
	})
	alertIngestGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "petwatch",
		Subsystem: "alerts",
		Name:      "last_ingest_timestamp_seconds",
		Help:      "Unix timestamp of the most recent alert ingestion.",
	})
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "petwatch",
		Subsystem: "ingest",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent sensor activity persisted to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(alertsIngestedCounter, alertIngestGauge, activityPersistGauge)
}

// RecordAlertsIngested updates the ledger ingestion counter and watermark.
func RecordAlertsIngested(count int, ts time.Time) {
	if count <= 0 {
		return
	}
	alertsIngestedCounter.Add(float64(count))
	if !ts.IsZero() {
		alertIngestGauge.Set(float64(ts.Unix()))
	}
}

// RecordActivityPersisted updates the sensor ingestion watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}
