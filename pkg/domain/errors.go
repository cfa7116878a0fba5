package domain

import "errors"

// ErrThinkerNotFound is returned when a ThinkerSpec names an implementation that is not registered.
var ErrThinkerNotFound = errors.New("thinker implementation not found")

// ErrConversationNotFound is returned when a conversation name is not configured.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrTemplateNotFound is returned when a prompt template cannot be located.
var ErrTemplateNotFound = errors.New("prompt template not found")

// ErrBindingNotFound is returned when a ThinkerSpec references an unknown model binding.
var ErrBindingNotFound = errors.New("model binding not found")

// ErrRunNotFound is returned when an audit sink holds no entries for a run ID.
var ErrRunNotFound = errors.New("run not found")
