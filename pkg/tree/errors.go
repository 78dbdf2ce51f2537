package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when a referenced node does not exist in the graph.
	// After a successful Build it indicates a traversal bug.
	ErrNodeNotFound = errors.New("tree: node not found")

	// ErrMissingEntry is returned when the start node is empty or not defined.
	ErrMissingEntry = errors.New("tree: entry node not defined")

	// ErrDanglingReference is returned when next_if_yes or next_if_no points at
	// a node id that is not part of the same scenario.
	ErrDanglingReference = errors.New("tree: dangling node reference")

	// ErrDuplicateNode is returned when two questions share an id.
	ErrDuplicateNode = errors.New("tree: duplicate node id")

	// ErrInvalidNode is returned for a question with an empty id or a negative weight.
	ErrInvalidNode = errors.New("tree: invalid question")

	// ErrEmptyGraph is returned for a scenario without questions.
	ErrEmptyGraph = errors.New("tree: scenario has no questions")

	// ErrDuplicateScenario is returned when a registry receives two graphs with the same id.
	ErrDuplicateScenario = errors.New("tree: duplicate scenario id")

	// ErrTraversalLimit is returned when a walk asks more questions than allowed,
	// which only happens for cyclic or malformed scenario data.
	ErrTraversalLimit = errors.New("tree: traversal limit exceeded")
)

// GraphError reports a malformed scenario. Err is one of the sentinel errors
// above so callers can use errors.Is.
type GraphError struct {
	Scenario string
	Node     string
	Detail   string
	Err      error
}

func (e *GraphError) Error() string {
	msg := e.Err.Error()
	if e.Scenario != "" {
		msg = fmt.Sprintf("scenario %q: %s", e.Scenario, msg)
	}
	if e.Node != "" {
		msg += fmt.Sprintf(" (node %q)", e.Node)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *GraphError) Unwrap() error { return e.Err }

func graphErr(scenario, node string, err error, format string, args ...any) *GraphError {
	return &GraphError{
		Scenario: scenario,
		Node:     node,
		Detail:   fmt.Sprintf(format, args...),
		Err:      err,
	}
}
