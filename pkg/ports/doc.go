/*
Package ports defines the driven ports (interfaces) of the data generator engine.

These interfaces decouple the orchestration core from its external collaborators, so the
same conversation pipeline can talk to any model vendor, any validator service and any
audit backend.

# Key Interfaces

  - AIClient: sends a rendered message list to a generative model and returns raw text.
  - Validator: judges the mechanical validity of a candidate artifact.
  - AuditSink: append-only log of every prompt and raw response, keyed by run ID.
  - Thinker: one prompt/generate/extract exchange step.
  - TemplateLoader: resolves prompt templates by ID.
  - Locker: serializes runs for the same target across processes.
*/
package ports
