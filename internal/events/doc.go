// Package events defines the domain event wire contract and the broker
// abstractions (Publisher, Subscriber, Delivery) used by the task server
// and the notification worker. The concrete RabbitMQ implementation lives
// in internal/platform/rabbit; tests use in-memory implementations.
package events
