package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// inputValidate checks inbound payloads and reports fields by their JSON name.
var inputValidate = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// UserInput is the inbound payload accepted by the entity upsert path.
type UserInput struct {
	ID             string   `json:"id" validate:"max=256"`
	UserID         string   `json:"userId" validate:"max=256"`
	Name           string   `json:"name" validate:"max=512"`
	Email          string   `json:"email" validate:"max=320"`
	Phone          string   `json:"phone" validate:"max=64"`
	Address        string   `json:"address" validate:"max=1024"`
	PaymentMethods []string `json:"paymentMethods" validate:"max=64,dive,max=256"`
}

// TransactionInput models the data required to insert a transaction and
// attach it to its parties. A zero Timestamp means "now".
type TransactionInput struct {
	ID         string         `json:"id" validate:"max=256"`
	SenderID   string         `json:"senderId" validate:"max=256"`
	ReceiverID string         `json:"receiverId" validate:"max=256"`
	Amount     float64        `json:"amount" validate:"gte=0"`
	Timestamp  int64          `json:"timestamp" validate:"gte=0"`
	IP         string         `json:"ip" validate:"max=64"`
	DeviceID   string         `json:"deviceId" validate:"max=256"`
	Metadata   map[string]any `json:"metadata"`
}

// resolvedID prefers id over the legacy userId field.
func (in UserInput) resolvedID() string {
	if id := normalizeID(in.ID); id != "" {
		return id
	}
	return normalizeID(in.UserID)
}
