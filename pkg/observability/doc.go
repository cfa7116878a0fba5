/*
Package observability exposes Prometheus metrics for the generator.

Metrics are fed through domain.LifecycleHooks, so any Conversation Generator or Facilitator
configured with Metrics.Hooks() reports Thinker latency, attempts and validation verdicts.
*/
package observability
