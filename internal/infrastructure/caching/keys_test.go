package caching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFormats(t *testing.T) {
	keys := Keys{Prefix: "leaguedesk"}

	assert.Equal(t, "leaguedesk:club:c1:node", keys.ClubNode("c1"))
	assert.Equal(t, "leaguedesk:club:all:ids", keys.ClubList())
	assert.Equal(t, "leaguedesk:club:c1:players", keys.ClubPlayers("c1"))
	assert.Equal(t, "leaguedesk:club:c1:fixtures", keys.ClubFixtures("c1"))
	assert.Equal(t, "leaguedesk:player:p9:node", keys.PlayerNode("p9"))
	assert.Equal(t, "leaguedesk:fixture:f3:node", keys.FixtureNode("f3"))
	assert.Equal(t, "leaguedesk:standings:north:table", keys.Standings("north"))
	assert.Equal(t, "leaguedesk:standings:", keys.TypePrefix(EntityStandings))
}

func TestDirectKeys(t *testing.T) {
	keys := Keys{Prefix: "leaguedesk"}

	assert.ElementsMatch(t, []string{
		"leaguedesk:club:c1:node",
		"leaguedesk:club:all:ids",
		"leaguedesk:club:c1:players",
		"leaguedesk:club:c1:fixtures",
	}, keys.DirectKeys(EntityClub, "c1"))

	assert.Equal(t, []string{"leaguedesk:player:p9:node"}, keys.DirectKeys(EntityPlayer, "p9"))
	assert.Equal(t, []string{"leaguedesk:fixture:f3:node"}, keys.DirectKeys(EntityFixture, "f3"))
	assert.Equal(t, []string{"leaguedesk:standings:north:table"}, keys.DirectKeys(EntityStandings, "north"))
	assert.Nil(t, keys.DirectKeys("unknown", "x"))
}

func TestDependentTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{EntityStandings, EntityPlayer}, DependentTypes(EntityClub))
	assert.ElementsMatch(t, []string{EntityClub}, DependentTypes(EntityPlayer))
	assert.ElementsMatch(t, []string{EntityStandings, EntityClub}, DependentTypes(EntityFixture))
	assert.Empty(t, DependentTypes(EntityStandings))
}
