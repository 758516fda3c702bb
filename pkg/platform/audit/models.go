package audit

import (
	"context"
	"time"

	"stakeport/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This enables
// different retention policies and routing.
type EventCategory string

const (
	// CategoryGovernance covers events that change who controls what. These
	// require long retention: they are the paper trail of the trust model.
	CategoryGovernance EventCategory = "governance"

	// CategorySecurity covers rejected operations relevant to monitoring:
	// failed authorizations, out-of-band price reports, monopoly flags.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine state changes useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Kept
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Actor     domain.Address
	EntityID  string
	Action    string
	Reason    string
	RequestID string
}

type AuditEvent string

const (
	// Registry events
	EventEntityRegistered  AuditEvent = "entity_registered"
	EventControllerChanged AuditEvent = "controller_changed"
	EventMaintainerChanged AuditEvent = "maintainer_changed"
	EventEntityInitiated   AuditEvent = "entity_initiated"

	// Governance events
	EventProposalCreated  AuditEvent = "proposal_created"
	EventProposalApproved AuditEvent = "proposal_approved"
	EventProposalExpired  AuditEvent = "proposal_expired"
	EventSenateElected    AuditEvent = "senate_elected"
	EventSenateVoteCast   AuditEvent = "senate_vote_cast"
	EventGovernanceFeeSet AuditEvent = "governance_fee_set"
	EventOracleParamsSet  AuditEvent = "oracle_params_set"
	EventApprovalRejected AuditEvent = "approval_rejected"

	// Maintainer events
	EventFeeSwitchQueued    AuditEvent = "fee_switch_queued"
	EventFeeSwitchActive    AuditEvent = "fee_switch_activated"
	EventValidatorActivated AuditEvent = "validator_activated"

	// Oracle events
	EventPriceAccepted AuditEvent = "price_accepted"
	EventPriceRejected AuditEvent = "price_rejected"
	EventMonopolyFlag  AuditEvent = "monopoly_flagged"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventEntityRegistered:  CategoryGovernance,
	EventControllerChanged: CategoryGovernance,
	EventMaintainerChanged: CategoryGovernance,
	EventEntityInitiated:   CategoryOperations,

	EventProposalCreated:  CategoryGovernance,
	EventProposalApproved: CategoryGovernance,
	EventProposalExpired:  CategoryOperations,
	EventSenateElected:    CategoryGovernance,
	EventSenateVoteCast:   CategoryGovernance,
	EventGovernanceFeeSet: CategoryGovernance,
	EventOracleParamsSet:  CategoryGovernance,
	EventApprovalRejected: CategorySecurity,

	EventFeeSwitchQueued:    CategoryOperations,
	EventFeeSwitchActive:    CategoryOperations,
	EventValidatorActivated: CategoryOperations,

	EventPriceAccepted: CategoryOperations,
	EventPriceRejected: CategorySecurity,
	EventMonopolyFlag:  CategorySecurity,
}

// Category returns the category for an audit event, defaulting to operations
// for unmapped actions.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
}
