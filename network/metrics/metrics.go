// Package metrics holds the prometheus collectors shared by the networking packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ironfish"

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "network",
		Name:      "messages_sent_total",
		Help:      "Framed messages handed to a transport, by message type",
	}, []string{"type"})

	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "network",
		Name:      "messages_received_total",
		Help:      "Messages decoded from a transport, by message type",
	}, []string{"type"})

	DecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "network",
		Name:      "decode_errors_total",
		Help:      "Inbound frames rejected by the envelope codec, by error kind",
	}, []string{"kind"})

	BoxedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "signaling",
		Name:      "boxed_total",
		Help:      "Signaling payloads encrypted",
	})

	UnboxFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "signaling",
		Name:      "unbox_failures_total",
		Help:      "Signaling payloads that failed to decrypt or authenticate",
	})

	WorkerPoolQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "workerpool",
		Name:      "queued_jobs",
		Help:      "Crypto jobs submitted and not yet finished",
	})
)
