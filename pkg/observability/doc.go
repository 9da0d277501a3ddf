/*
Package observability provides lifecycle hooks for monitoring machines.

Metrics feeds Prometheus counters from transitions, rejected symbols and trap
outputs; LoggingHooks writes the same events to a structured logger. Both
return domain.LifecycleHooks, which can be combined with Merge.
*/
package observability
