package domain

// Page bounds a list query.
type Page struct {
	Limit int
	Skip  int
}

// Attributes a transaction can be linked on, as stored on the node.
const (
	AttributeIP       = "ip"
	AttributeDeviceID = "deviceId"
)
