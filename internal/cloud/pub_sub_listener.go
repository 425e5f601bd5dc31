// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file defines a Pub/Sub listener that hands every message to a
// cor.Command. Episode requests published to a topic are processed exactly
// like HTTP requests, through the same workflow.
//
// Logic Flow:
//  1. A PubSubListener is created for a subscription from configuration.
//  2. The workflow that processes messages is attached with SetCommand.
//  3. Listen starts a goroutine that receives messages until ctx is cancelled.
//  4. Each message runs the command in a fresh cor.Context under its own span,
//     bounded by the subscription's configured timeout.
//  5. The message is acked when the command records no error and nacked
//     otherwise, so redelivery and dead-lettering follow the subscription policy.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-true-crime/internal/core/cor"
)

// PubSubListener connects a subscription to the command that processes its messages.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
	timeout      time.Duration
}

// NewPubSubListener creates a listener for subscriptionID. The command may be
// nil and attached later with SetCommand, once the workflows are built.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches command if none is set yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// SetTimeout bounds the processing of a single message. Zero means no bound.
func (m *PubSubListener) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

// Listen receives messages in the background until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	if m.command == nil {
		slog.Warn("pub/sub listener has no command, not listening", "subscription", m.subscription.String())
		return
	}
	slog.Info("listening", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")
		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			m.handle(ctx, tracer, msg)
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.String(), "error", err)
		}
	}()
}

func (m *PubSubListener) handle(ctx context.Context, tracer trace.Tracer, msg *pubsub.Message) {
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.String("message_id", msg.ID))

	if m.timeout > 0 {
		var cancel context.CancelFunc
		spanCtx, cancel = context.WithTimeout(spanCtx, m.timeout)
		defer cancel()
	}

	chainCtx := cor.NewBaseContextWith(spanCtx)
	chainCtx.Add(cor.CtxIn, string(msg.Data))
	m.command.Execute(chainCtx)

	if !chainCtx.HasErrors() {
		span.SetStatus(codes.Ok, "success")
		msg.Ack()
		return
	}
	span.SetStatus(codes.Error, "failed")
	for name, e := range chainCtx.GetErrors() {
		slog.ErrorContext(spanCtx, "error executing chain", "command", name, "error", e)
	}
	msg.Nack()
}
