package domain

import "strings"

// User models a user node in the graph.
type User struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	Address        string
	PaymentMethods []string
}

// Ref returns the graph reference of the user node.
func (u User) Ref() NodeRef {
	return UserRef(u.ID)
}

// Properties renders the user as the property map stored on the node.
// Blank optional fields are omitted, the same way the graph drops null properties.
func (u User) Properties() map[string]any {
	props := map[string]any{
		"id":             u.ID,
		"paymentMethods": append([]string{}, u.PaymentMethods...),
	}
	putString(props, "name", u.Name)
	putString(props, "email", u.Email)
	putString(props, "phone", u.Phone)
	putString(props, "address", u.Address)
	return props
}

// SameAttribute reports whether two user contact values count as shared:
// both non-blank and equal after trimming, ignoring case.
func SameAttribute(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func putString(props map[string]any, key, value string) {
	if value != "" {
		props[key] = value
	}
}
