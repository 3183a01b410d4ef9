package fulfillment

import (
	"time"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
)

type ItemType string

const (
	ItemTypeEvent ItemType = "event"
	ItemTypeShop  ItemType = "shop"
)

// Order is the ephemeral trigger of a fulfillment attempt. It is derived from
// a verified checkout session and never persisted as-is.
type Order struct {
	ItemType         ItemType `json:"item_type" validate:"required,oneof=event shop"`
	ItemName         string   `json:"item_name" validate:"required"`
	Quantity         int64    `json:"quantity" validate:"required,min=1"`
	BuyerUID         string   `json:"buyer_uid" validate:"required"`
	IdempotencyToken string   `json:"idempotency_token" validate:"required"`
}

type Status string

const (
	StatusReceived      Status = "RECEIVED"
	StatusValidated     Status = "VALIDATED"
	StatusIssued        Status = "ISSUED"
	StatusPersisted     Status = "PERSISTED"
	StatusRejected      Status = "REJECTED"
	StatusPersistFailed Status = "PERSIST_FAILED"
	StatusSkipped       Status = "SKIPPED"
)

type FulfillmentResult struct {
	Status          Status
	IssuedTickets   []user.Ticket
	NewCounterValue int64
	RewardEligible  bool
	// Duplicate marks a replayed idempotency token whose tickets were issued
	// by an earlier call.
	Duplicate bool
}

// FulfillmentRecord is the durable at-most-once guard, one document per
// idempotency token. Tickets are recorded at issuance so a replay or a resumed
// persist never mints a second batch.
type FulfillmentRecord struct {
	ID           string        `bson:"_id"`
	Token        string        `bson:"token"`
	UID          string        `bson:"uid"`
	EventName    string        `bson:"eventName"`
	Quantity     int64         `bson:"quantity"`
	Status       Status        `bson:"status"`
	Tickets      []user.Ticket `bson:"tickets"`
	CounterValue int64         `bson:"counterValue"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}
