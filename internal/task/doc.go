// Package task implements the background task-processing engine: the
// priority scheduler, the admission-bounded worker pool, and the retry
// coordinator that republishes failed tasks with exponential backoff.
// Broker adapters feed the engine raw payloads; the engine decodes them
// into envelopes, orders them, and executes them through a Handler.
package task
