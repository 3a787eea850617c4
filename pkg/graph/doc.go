// Package graph defines the design graph for polybool.
// The design graph is an immutable DAG of primitives, transforms, Boolean
// operations and groups that describes a constructive solid model.
package graph
