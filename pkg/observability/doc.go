/*
Package observability provides Prometheus metrics and structured-log hooks for
the form engine and the backend.

Hooks returned by Metrics.Hooks and LogHooks plug into a reactive.Runtime via
reactive.WithLifecycleHooks; they can be combined with domain.LifecycleHooks.Merge.
*/
package observability
