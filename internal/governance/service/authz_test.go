package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stakeport/internal/governance/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
)

func testParams(expiry time.Time) *models.GovernanceParams {
	return &models.GovernanceParams{
		Governance:   governance,
		Senate:       senateCtrl,
		SenateExpiry: expiry,
		SenateQuorum: 1,
	}
}

func TestCanApproveEntity(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("vacancy wins over role", func(t *testing.T) {
		params := testParams(now.Add(-time.Second))
		authz := CanApproveEntity(params, governance, now)
		assert.False(t, authz.Allowed)
		assert.Equal(t, dErrors.CodeSenateExpired, authz.Code)
	})

	t.Run("governance approves while the senate stands", func(t *testing.T) {
		params := testParams(now.Add(time.Hour))
		assert.True(t, CanApproveEntity(params, governance, now).Allowed)
	})

	t.Run("expiry is exclusive", func(t *testing.T) {
		params := testParams(now)
		assert.True(t, CanApproveEntity(params, governance, now).Allowed)
	})

	t.Run("non-governance denied", func(t *testing.T) {
		params := testParams(now.Add(time.Hour))
		authz := CanApproveEntity(params, alice, now)
		assert.False(t, authz.Allowed)
		assert.Equal(t, dErrors.CodeUnauthorized, authz.Code)
	})
}

func TestCanVoteSenate(t *testing.T) {
	electors := map[domain.Address]bool{alice: true}

	assert.True(t, CanVoteSenate(senateCtrl, electors, senateCtrl).Allowed)
	assert.True(t, CanVoteSenate(senateCtrl, electors, alice).Allowed)
	assert.False(t, CanVoteSenate(senateCtrl, electors, bob).Allowed)
}

func TestQuorumReached(t *testing.T) {
	t.Run("senate vote alone satisfies quorum one", func(t *testing.T) {
		assert.True(t, QuorumReached([]domain.Address{senateCtrl}, senateCtrl, 1))
	})

	t.Run("elector votes without the senate never reach quorum", func(t *testing.T) {
		assert.False(t, QuorumReached([]domain.Address{alice, bob}, senateCtrl, 2))
	})

	t.Run("duplicate votes count once", func(t *testing.T) {
		votes := []domain.Address{senateCtrl, alice, alice}
		assert.False(t, QuorumReached(votes, senateCtrl, 3))
		assert.True(t, QuorumReached(append(votes, bob), senateCtrl, 3))
	})

	t.Run("quorum below one is clamped", func(t *testing.T) {
		assert.True(t, QuorumReached([]domain.Address{senateCtrl}, senateCtrl, 0))
	})
}

func TestAuthorizationErr(t *testing.T) {
	assert.NoError(t, allowed().Err())
	err := denied(dErrors.CodeUnauthorized, "nope").Err()
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
