// Package middleware decorates a ports.RunStore with cross-cutting behavior
// such as encryption at rest.
package middleware
