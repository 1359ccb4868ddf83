package csv

import "github.com/Vitruves/sonicsv/internal/engine"

// Status is the result code every parse entry point returns.
type Status int8

const (
	StatusOK               = Status(engine.StatusOK)
	StatusInvalidArguments = Status(engine.StatusInvalidArguments)
	StatusOutOfMemory      = Status(engine.StatusOutOfMemory)
	StatusParseError       = Status(engine.StatusParseError)
	StatusFieldTooLarge    = Status(engine.StatusFieldTooLarge)
	StatusRowTooLarge      = Status(engine.StatusRowTooLarge)
	StatusIoError          = Status(engine.StatusIoError)
)

func (s Status) String() string { return engine.Status(s).String() }

// Field is one parsed value, valid only for the duration of the row
// callback that received it.
type Field = engine.Field

// Row is one emitted record, valid only for the duration of the row
// callback that received it.
type Row = engine.Row

// Stats is the statistics surface a Parser reports on demand.
type Stats = engine.Stats
