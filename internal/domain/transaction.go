package domain

// Transaction models a transaction node in the graph.
type Transaction struct {
	ID        string
	Amount    float64
	Timestamp int64 // milliseconds since epoch
	IP        string
	DeviceID  string
	Metadata  map[string]any
}

// Parties names the users a transaction should be attached to at insert time.
// Either side may be blank or reference a user that does not exist; the
// corresponding edge is then skipped.
type Parties struct {
	SenderID   string
	ReceiverID string
}

// Ref returns the graph reference of the transaction node.
func (t Transaction) Ref() NodeRef {
	return TransactionRef(t.ID)
}

// Properties renders the transaction as a display property map.
func (t Transaction) Properties() map[string]any {
	metadata := make(map[string]any, len(t.Metadata))
	for k, v := range t.Metadata {
		metadata[k] = v
	}
	props := map[string]any{
		"id":        t.ID,
		"amount":    t.Amount,
		"timestamp": t.Timestamp,
		"metadata":  metadata,
	}
	putString(props, "ip", t.IP)
	putString(props, "deviceId", t.DeviceID)
	return props
}
