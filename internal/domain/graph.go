package domain

import "fmt"

// Label identifies a node kind in the graph.
type Label string

const (
	LabelUser        Label = "User"
	LabelTransaction Label = "Transaction"
)

// EdgeType identifies a stored relationship kind.
type EdgeType string

const (
	EdgeSent       EdgeType = "SENT"
	EdgeReceivedBy EdgeType = "RECEIVED_BY"
	EdgeSameIP     EdgeType = "SAME_IP"
	EdgeSameDevice EdgeType = "SAME_DEVICE"
)

// Relationship types exposed in assembled neighborhoods. They are a
// presentation vocabulary and differ from the stored EdgeType values.
const (
	ViewSentReceived    = "SENT/RECEIVED"
	ViewDirect          = "DIRECT"
	ViewSharedAttribute = "SHARED_ATTRIBUTE"
	ViewSent            = "SENT"
	ViewReceivedBy      = "RECEIVED_BY"
	ViewLinked          = "LINKED"
)

// NodeRef points at a single node by label and raw id.
type NodeRef struct {
	Label Label
	ID    string
}

// UserRef is shorthand for a reference to a user node.
func UserRef(id string) NodeRef {
	return NodeRef{Label: LabelUser, ID: id}
}

// TransactionRef is shorthand for a reference to a transaction node.
func TransactionRef(id string) NodeRef {
	return NodeRef{Label: LabelTransaction, ID: id}
}

// Key returns the namespaced identifier used in assembled graphs, so a user
// and a transaction sharing a raw id never collide.
func (r NodeRef) Key() string {
	switch r.Label {
	case LabelUser:
		return "user-" + r.ID
	case LabelTransaction:
		return "tx-" + r.ID
	default:
		return fmt.Sprintf("%s-%s", r.Label, r.ID)
	}
}

func (r NodeRef) String() string {
	return fmt.Sprintf("%s(%s)", r.Label, r.ID)
}

// Node is a display-ready graph node.
type Node struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// Edge is a display-ready relationship between two namespaced node ids.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Graph is the response shape of every neighborhood query.
type Graph struct {
	Nodes         []Node `json:"nodes"`
	Relationships []Edge `json:"relationships"`
}

// EmptyGraph returns a graph whose slices encode as [] rather than null.
func EmptyGraph() Graph {
	return Graph{Nodes: []Node{}, Relationships: []Edge{}}
}
