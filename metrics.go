// Copyright (c) 2023 The Gnet Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wireloop

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "wireloop"

// metrics holds the collectors of one server, a nil *metrics records nothing.
type metrics struct {
	connections   prometheus.Gauge
	accepted      prometheus.Counter
	bytesReceived prometheus.Counter
	bytesSent     prometheus.Counter
	broadcasts    prometheus.Counter
	clientErrors  prometheus.Counter
}

// registerVec registers c with reg, reusing the collector already registered
// under the same descriptor so that several servers can share a registry.
func registerVec[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func newMetrics(reg prometheus.Registerer, server string) *metrics {
	if reg == nil {
		return nil
	}

	labels := []string{"server"}
	connections := registerVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "connections",
		Help:      "Number of live connections.",
	}, labels))
	accepted := registerVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "connections_total",
		Help:      "Number of connections registered since start.",
	}, labels))
	received := registerVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "received_bytes_total",
		Help:      "Number of bytes read from peers.",
	}, labels))
	sent := registerVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sent_bytes_total",
		Help:      "Number of bytes written to peers.",
	}, labels))
	broadcasts := registerVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "broadcasts_total",
		Help:      "Number of broadcasts.",
	}, labels))
	clientErrors := registerVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "client_errors_total",
		Help:      "Number of connections or datagrams that failed.",
	}, labels))

	return &metrics{
		connections:   connections.WithLabelValues(server),
		accepted:      accepted.WithLabelValues(server),
		bytesReceived: received.WithLabelValues(server),
		bytesSent:     sent.WithLabelValues(server),
		broadcasts:    broadcasts.WithLabelValues(server),
		clientErrors:  clientErrors.WithLabelValues(server),
	}
}

func (m *metrics) connOpened() {
	if m != nil {
		m.connections.Inc()
		m.accepted.Inc()
	}
}

func (m *metrics) connClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *metrics) received(n int) {
	if m != nil {
		m.bytesReceived.Add(float64(n))
	}
}

func (m *metrics) sent(n int) {
	if m != nil {
		m.bytesSent.Add(float64(n))
	}
}

func (m *metrics) broadcast() {
	if m != nil {
		m.broadcasts.Inc()
	}
}

func (m *metrics) clientError() {
	if m != nil {
		m.clientErrors.Inc()
	}
}
