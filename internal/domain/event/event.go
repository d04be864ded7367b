// Package event defines the fraud domain events published to the message bus
// and the publisher port implemented by the Kafka adapter.
package event

import (
	"context"
	"time"
)

// Type identifies the kind of fraud event.
type Type string

const (
	// TypeClaimFlagged fires when scoring routes a claim to admin review.
	TypeClaimFlagged Type = "claim.flagged"

	// TypeClaimAutoRejected fires when the review timeout sweeper rejects a
	// claim nobody decided in time.
	TypeClaimAutoRejected Type = "claim.auto_rejected"
)

// FraudEvent is the wire payload for fraud lifecycle events.
type FraudEvent struct {
	Type       Type      `json:"type"`
	ClaimID    string    `json:"claimId"`
	PatientID  string    `json:"patientId,omitempty"`
	ProviderID string    `json:"providerId,omitempty"`
	Score      int       `json:"score"`
	RiskLevel  string    `json:"riskLevel"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends fraud events downstream.  Publishing is best-effort from
// the caller's point of view: scoring and sweeping never fail because the
// bus is down.
type Publisher interface {
	Publish(ctx context.Context, ev FraudEvent) error
}

// NopPublisher discards events; used in tests and when messaging is disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, FraudEvent) error { return nil }
