// Package logger provides structured logging functionality for the worker.
package logger
