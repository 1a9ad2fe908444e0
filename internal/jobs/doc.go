// Package jobs defines the application task payloads carried inside
// envelopes and the handler that dispatches them to their collaborators.
// The handler holds no business logic of its own; email delivery, token
// cleanup and upload processing live behind narrow interfaces owned by
// the application layer.
package jobs
