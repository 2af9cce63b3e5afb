// Package messaging is a small broker-agnostic publish/consume API.
//
// Business code depends on Messaging only; the driver (NATS, Kafka, NSQ or
// Google Pub/Sub) is chosen at startup by Open.
package messaging
