package service

import (
	"time"

	"stakeport/internal/governance/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
)

// Authorization is the typed result of a capability check. Checks are pure
// functions over the governance singleton and the caller, kept separate from
// the state transitions so they can be tested on their own.
type Authorization struct {
	Allowed bool
	Code    dErrors.Code
	Reason  string
}

func allowed() Authorization {
	return Authorization{Allowed: true}
}

func denied(code dErrors.Code, reason string) Authorization {
	return Authorization{Code: code, Reason: reason}
}

// Err converts a denial into its domain error; nil when allowed.
func (a Authorization) Err() error {
	if a.Allowed {
		return nil
	}
	return dErrors.New(a.Code, a.Reason)
}

// CanSubmitNewEntity checks who may propose onboarding a brand-new id:
// the governance role only.
func CanSubmitNewEntity(params *models.GovernanceParams, caller domain.Address) Authorization {
	if caller != params.Governance {
		return denied(dErrors.CodeUnauthorized, "only governance may propose new entities")
	}
	return allowed()
}

// CanSubmitControllerChange checks who may propose a controller change for an
// existing id: exclusively its current controller.
func CanSubmitControllerChange(controller, caller domain.Address) Authorization {
	if caller != controller {
		return denied(dErrors.CodeUnauthorized, "only the current controller may propose a controller change")
	}
	return allowed()
}

// CanApproveEntity checks approval of operator/pool/sub-pool proposals: the
// governance role, and only while the senate term stands. A lapsed senate
// blocks everything except its own re-election.
func CanApproveEntity(params *models.GovernanceParams, caller domain.Address, now time.Time) Authorization {
	if params.SenateExpired(now) {
		return denied(dErrors.CodeSenateExpired, "senate term lapsed; only re-election proposals may be approved")
	}
	if caller != params.Governance {
		return denied(dErrors.CodeUnauthorized, "only governance may approve proposals")
	}
	return allowed()
}

// CanVoteSenate checks senate election eligibility. The sitting senate
// controller is always an elector; controllers of initiated entities are
// electors for quorums above one.
func CanVoteSenate(senateController domain.Address, electorControllers map[domain.Address]bool, caller domain.Address) Authorization {
	if caller == senateController {
		return allowed()
	}
	if electorControllers[caller] {
		return allowed()
	}
	return denied(dErrors.CodeUnauthorized, "caller is not an eligible senate elector")
}

// CanSetGovernanceFee checks the fee update capability: governance role only.
func CanSetGovernanceFee(params *models.GovernanceParams, caller domain.Address) Authorization {
	if caller != params.Governance {
		return denied(dErrors.CodeUnauthorized, "only governance may set the governance fee")
	}
	return allowed()
}

// QuorumReached reports whether a senate election has the required distinct
// votes, and that the sitting senate controller's vote is among them.
func QuorumReached(votes []domain.Address, senateController domain.Address, quorum int) bool {
	if quorum < 1 {
		quorum = 1
	}
	senateVoted := false
	seen := make(map[domain.Address]bool, len(votes))
	for _, v := range votes {
		seen[v] = true
		if v == senateController {
			senateVoted = true
		}
	}
	return senateVoted && len(seen) >= quorum
}
