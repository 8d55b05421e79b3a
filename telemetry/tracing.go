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
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/fetchai/agents-aea-sub004/protocols"
)

// InitTracerProvider installs a stdout-exporting TracerProvider as the
// global provider and returns its Shutdown func. A production deployment
// would swap stdouttrace for an OTLP exporter; the rest of this package
// only ever calls otel.Tracer, so that swap needs no further change here.
func InitTracerProvider() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer is a protocols.Observer that opens one span per dialogue at
// creation time and closes it when the dialogue reaches a terminal state,
// recording the terminal performative and final message count as span
// attributes.
// Spans are keyed by the *Dialogue pointer, not its label: the label of a
// self-initiated dialogue is rewritten in place when the handshake
// completes, which would orphan a label-keyed entry before the terminal
// transition ever fires.
type Tracer struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[*protocols.Dialogue]trace.Span
}

// NewTracer builds a Tracer that opens spans under the given
// instrumentation name (typically the dialogue protocol's name).
func NewTracer(instrumentationName string) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(instrumentationName),
		spans:  make(map[*protocols.Dialogue]trace.Span),
	}
}

// OnDialogueCreated starts a span for the dialogue, tagged with its label,
// role, and whether it was self-initiated.
func (t *Tracer) OnDialogueCreated(dialogue *protocols.Dialogue) {
	_, span := t.tracer.Start(context.Background(), "dialogue",
		trace.WithAttributes(
			attribute.String("dialogue.label", dialogue.DialogueLabel().String()),
			attribute.String("dialogue.role", string(dialogue.Role())),
			attribute.Bool("dialogue.self_initiated", dialogue.IsSelfInitiated()),
		),
	)
	t.mu.Lock()
	t.spans[dialogue] = span
	t.mu.Unlock()
}

// OnDialogueTerminal records the closing performative and message count
// and ends the span opened for this dialogue.
func (t *Tracer) OnDialogueTerminal(dialogue *protocols.Dialogue) {
	t.mu.Lock()
	span, ok := t.spans[dialogue]
	delete(t.spans, dialogue)
	t.mu.Unlock()
	if !ok {
		return
	}
	if last := dialogue.LastMessage(); last != nil {
		span.SetAttributes(attribute.String("dialogue.terminal_performative", string(last.Performative())))
	}
	span.SetAttributes(attribute.Int("dialogue.message_count", len(dialogue.History())))
	span.End()
}

// OnDialogueRolledBack ends the span of a dialogue whose first message
// failed validation, marking it so rolled-back dialogues are
// distinguishable from completed ones in the trace backend.
func (t *Tracer) OnDialogueRolledBack(dialogue *protocols.Dialogue) {
	t.mu.Lock()
	span, ok := t.spans[dialogue]
	delete(t.spans, dialogue)
	t.mu.Unlock()
	if !ok {
		return
	}
	span.SetAttributes(attribute.Bool("dialogue.rolled_back", true))
	span.End()
}

// OnMessageRejected has no dialogue to attach a span to (the rejection may
// have happened before any dialogue existed); it is logged instead.
func (t *Tracer) OnMessageRejected(reason string) {
	logger.Debug().Str("reason", reason).Msg("message rejected")
}
