/* -*- coding: utf-8 -*-
* ------------------------------------------------------------------------------
*
*   Copyright 2018-2021 Fetch.AI Limited
*
*   Licensed under the Apache License, Version 2.0 (the "License");
*   you may not use this file except in compliance with the License.
*   You may obtain a copy of the License at
*
*       http://www.apache.org/licenses/LICENSE-2.0
*
*   Unless required by applicable law or agreed to in writing, software
*   distributed under the License is distributed on an "AS IS" BASIS,
*   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*   See the License for the specific language governing permissions and
*   limitations under the License.
*
* ------------------------------------------------------------------------------
 */

package telemetry

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fetchai/agents-aea-sub004/protocols"
)

var (
	dialoguesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialogues_active",
		Help: "Number of dialogues currently open (not yet terminal).",
	})

	dialoguesTerminalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogues_terminal_total",
			Help: "Total number of dialogues that reached a terminal performative, by that performative.",
		},
		[]string{"performative"},
	)

	dialoguesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogues_rejected_total",
			Help: "Total number of messages rejected by the coordinator or a dialogue, by reason.",
		},
		[]string{"reason"},
	)
)

// Metrics is a protocols.Observer that keeps the dialogues_* gauges and
// counters above in sync with coordinator lifecycle events.
type Metrics struct{}

// NewMetrics builds a Metrics observer. The underlying collectors are
// package-level (promauto registers them once, against the default
// registry), so constructing more than one Metrics is safe but pointless.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) OnDialogueCreated(*protocols.Dialogue) {
	dialoguesActive.Inc()
}

func (m *Metrics) OnDialogueTerminal(dialogue *protocols.Dialogue) {
	dialoguesActive.Dec()
	performative := "unknown"
	if last := dialogue.LastMessage(); last != nil {
		performative = string(last.Performative())
	}
	dialoguesTerminalTotal.WithLabelValues(performative).Inc()
}

// OnDialogueRolledBack undoes the active-gauge increment of a dialogue
// whose first message failed validation; the rejection itself is counted
// separately via OnMessageRejected.
func (m *Metrics) OnDialogueRolledBack(*protocols.Dialogue) {
	dialoguesActive.Dec()
}

// OnMessageRejected labels the counter with just the rejection's error
// kind (the text before the first ": "), not the full, message-specific
// reason string, to keep the label's cardinality bounded.
func (m *Metrics) OnMessageRejected(reason string) {
	kind := reason
	if idx := strings.Index(reason, ": "); idx >= 0 {
		kind = reason[:idx]
	}
	dialoguesRejectedTotal.WithLabelValues(kind).Inc()
}

// Handler returns the default Prometheus registry's HTTP handler, for a
// caller to mount on its metrics listen address.
func Handler() http.Handler {
	return promhttp.Handler()
}
