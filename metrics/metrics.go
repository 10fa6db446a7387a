// Package metrics counts signing operations and exports them in the
// Prometheus text format, so a batch run can drop them into a node-exporter
// textfile directory.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/sig"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jwtmint"

type Metrics struct {
	Registry *prometheus.Registry

	TokensIssued    *prometheus.CounterVec
	SignFailures    *prometheus.CounterVec
	SigningDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Tokens minted, by algorithm.",
		}, []string{"alg"}),
		SignFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_failures_total",
			Help:      "Failed signing operations, by algorithm and error kind.",
		}, []string{"alg", "kind"}),
		SigningDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "signing_duration_seconds",
			Help:      "Time spent in the signing backend.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"alg"}),
	}
	m.Registry.MustRegister(m.TokensIssued, m.SignFailures, m.SigningDuration)
	return m
}

// Instrument wraps a Signer so every call is timed and failures are counted.
func (m *Metrics) Instrument(next sig.Signer) sig.Signer {
	return sig.SignerFunc(func(ctx context.Context, message []byte, spec sig.CryptoSpec) ([]byte, error) {
		start := time.Now()
		out, err := next.Sign(ctx, message, spec)
		m.SigningDuration.WithLabelValues(spec.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			m.SignFailures.WithLabelValues(spec.Name, ErrorKind(err)).Inc()
		}
		return out, err
	})
}

// TokenIssued records one minted token.
func (m *Metrics) TokenIssued(alg sig.SigAlg) {
	m.TokensIssued.WithLabelValues(alg.String()).Inc()
}

// ErrorKind maps an error to a low-cardinality label value.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, common.ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, common.ErrSigning):
		return "signing"
	default:
		return "other"
	}
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
