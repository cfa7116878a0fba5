/*
Package domain contains the core models of the data generator engine.

It defines the state threaded through a conversation (Wisdom), the static description of a
conversation (ThoughtProcess and ThinkerSpec), the pieces a Thinker works with (Message,
PromptTemplate, ExtractionRule) and the results that flow back to the Facilitator
(ValidationOutcome, ValidationHistory). The package has no I/O and no external dependencies.

# Key Entities

  - Wisdom: the accumulated run state. Every stage returns a new Wisdom merged over the previous one.
  - ThoughtProcess: a named, ordered list of ThinkerSpecs that forms one conversation.
  - ExtractionRule: a front/back delimiter pair naming a segment inside free-form model text.
  - ValidationOutcome: the verdict of the external validator for one candidate.
  - AuditEntry: one append-only record of a rendered prompt or a raw model response.
*/
package domain
