package graph

import "github.com/google/uuid"

// namespace scopes node IDs so that the same path always yields the same ID.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("polybool/graph"))

// NodeID identifies a graph node. IDs are name-based UUIDs derived from the
// node's construction path, so re-evaluating a script reproduces them.
type NodeID uuid.UUID

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID returns the deterministic ID for a construction path such as
// "defsolid/bracket" or "union/3".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)))
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

// String returns the canonical UUID form.
func (id NodeID) String() string { return uuid.UUID(id).String() }

// Short returns the first eight hex digits, for messages.
func (id NodeID) Short() string { return id.String()[:8] }

// MarshalText implements encoding.TextMarshaler so IDs work as JSON map keys.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *NodeID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}
