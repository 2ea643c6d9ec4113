// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package forward fans history entries out to an external sink, in
// practice an MQTT broker.
//
// The [Forwarder] sits beside the history store, never in front of it.
// The poller hands it each appended entry through [Forwarder.Enqueue],
// which never blocks: when the queue is full the entry is dropped and
// counted, and the local history is unaffected. [Forwarder.Run]
// publishes queued entries one at a time as JSON through a [Publisher].
// Publish failures are logged and counted; nothing is retried, since
// the next reading arrives within one poll interval anyway.
//
// [MQTTPublisher] implements [Publisher] over eclipse/paho.mqtt.golang
// with automatic reconnection, so a broker that is down at startup or
// restarts later only costs the entries published while it is away.
package forward
