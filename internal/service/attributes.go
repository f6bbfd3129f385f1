package service

import (
	"strings"

	"github.com/vanshika/fintrace/internal/domain"
)

// linkAttribute is one shared-identifier pass of the linkage engine.
type linkAttribute struct {
	Name  string
	Value string
	Edge  domain.EdgeType
}

// linkAttributes returns the passes to run for tx in a fixed order: ip, then
// deviceId. Absent or blank attributes produce no pass.
func linkAttributes(tx domain.Transaction) []linkAttribute {
	var attrs []linkAttribute

	if strings.TrimSpace(tx.IP) != "" {
		attrs = append(attrs, linkAttribute{Name: domain.AttributeIP, Value: tx.IP, Edge: domain.EdgeSameIP})
	}
	if strings.TrimSpace(tx.DeviceID) != "" {
		attrs = append(attrs, linkAttribute{Name: domain.AttributeDeviceID, Value: tx.DeviceID, Edge: domain.EdgeSameDevice})
	}

	return attrs
}
