/*
Package datagen generates synthetic structured data (XML or JSON records that conform to a
semantic specification) by querying a generative model and validating the result.

The core is a conversation engine: a configured pipeline of Thinkers, each rendering a
prompt from the accumulated state ("Wisdom"), calling an AI client and extracting
delimiter-bounded fields from the raw reply. A Facilitator wraps the pipeline in a bounded
generate, validate, repair loop until the candidate passes or the iteration budget is spent.

# Usage

	cfg, err := config.Load("datagen.yaml")
	if err != nil {
		log.Fatal(err)
	}

	eng, err := datagen.New(ctx, cfg,
		datagen.WithClients(clients),
		datagen.WithValidator(validation.NewXMLValidator("StudentPersonal")),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Generate(ctx, datagen.Target{Name: "StudentPersonal", Specification: spec})
	if err != nil {
		log.Fatal(err) // transport or model failure
	}
	if !res.IsValid {
		log.Printf("still invalid after %d attempts: %v", res.Attempts, res.History)
	}

Running out of attempts is a normal outcome reported by Result.IsValid. Errors are reserved
for failed model calls, unreachable validators and cancellation.

# Architecture

  - pkg/domain: Wisdom, ThinkerSpec, ValidationHistory and audit types.
  - pkg/prompt and pkg/extract: template rendering and field extraction.
  - pkg/thinker, pkg/conversation, pkg/facilitator: the orchestration engine.
  - pkg/aiclient and pkg/adapters: AI providers, validators, audit sinks and template stores.
  - cmd/datagen: the CLI, HTTP server and MCP server.
*/
package datagen
