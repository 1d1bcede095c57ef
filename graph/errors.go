package graph

import (
	"fmt"
	"strings"
)

// UnreachableNodeError reports a node that cannot be reached from the start
// node. Compilation fails fast rather than silently pruning author content.
type UnreachableNodeError struct {
	Node string
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("compile: node %q is unreachable from the start node", e.Node)
}

// AmbiguousDefaultEdgeError reports a node with more than one default edge.
type AmbiguousDefaultEdgeError struct {
	Node string
}

func (e *AmbiguousDefaultEdgeError) Error() string {
	return fmt.Sprintf("compile: node %q has more than one default edge", e.Node)
}

// UnboundedCycleError reports a cycle with no decreasing-counter or
// termination-predicate guard. No unconditional infinite loop is compilable.
type UnboundedCycleError struct {
	Cycle []string
}

func (e *UnboundedCycleError) Error() string {
	return fmt.Sprintf("compile: cycle [%s] has no decreasing-counter or termination guard",
		strings.Join(e.Cycle, " -> "))
}

// UnknownBindingError reports a node whose model binding cannot be resolved
// to a registered provider.
type UnknownBindingError struct {
	Node    string
	Binding string
}

func (e *UnknownBindingError) Error() string {
	return fmt.Sprintf("compile: node %q references unresolvable binding %q", e.Node, e.Binding)
}

// GuardError reports an edge whose when clause does not parse.
type GuardError struct {
	From string
	To   string
	Err  error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("compile: edge %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *GuardError) Unwrap() error { return e.Err }
