package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeagueTier_Order(t *testing.T) {
	next, ok := TierBronze.Next()
	require.True(t, ok)
	assert.Equal(t, TierSilver, next)

	_, ok = TierDiamond.Next()
	assert.False(t, ok, "выше diamond лиги нет")

	prev, ok := TierDiamond.Prev()
	require.True(t, ok)
	assert.Equal(t, TierPlatinum, prev)

	_, ok = TierBronze.Prev()
	assert.False(t, ok)

	assert.True(t, TierDiamond.IsTop())
	assert.True(t, TierBronze.IsBottom())
	assert.Equal(t, -1, LeagueTier("wood").Index())
}

func TestParseLeagueTier(t *testing.T) {
	tier, err := ParseLeagueTier(" Gold ")
	require.NoError(t, err)
	assert.Equal(t, TierGold, tier)

	_, err = ParseLeagueTier("wood")
	assert.Error(t, err)
}

func TestLeagueMovement_IsPromotion(t *testing.T) {
	up := &LeagueMovement{FromTier: TierSilver, ToTier: TierGold}
	down := &LeagueMovement{FromTier: TierSilver, ToTier: TierBronze}
	assert.True(t, up.IsPromotion())
	assert.False(t, down.IsPromotion())
}

func TestUser_Tier(t *testing.T) {
	assert.Equal(t, TierBronze, (&User{}).Tier(), "пустая лига считается бронзой")
	assert.Equal(t, TierGold, (&User{League: TierGold}).Tier())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleTutor}).IsAdmin())
}
