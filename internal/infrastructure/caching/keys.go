// Package caching defines the cache key schemas and the dependency map used
// for write invalidation. Keys follow the form prefix:entity:id:variant so a
// key uniquely encodes entity type, identity and query variant.
package caching

import "fmt"

// Entity types known to the cache layer
const (
	EntityClub      = "club"
	EntityPlayer    = "player"
	EntityFixture   = "fixture"
	EntityStandings = "standings"
)

// Change kinds reported by write paths
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
	ChangeResult = "result" // fixture score recorded
)

// Keys builds namespaced cache keys for one configured prefix
type Keys struct {
	Prefix string
}

func (k Keys) ClubNode(id string) string      { return fmt.Sprintf("%s:club:%s:node", k.Prefix, id) }
func (k Keys) ClubList() string               { return fmt.Sprintf("%s:club:all:ids", k.Prefix) }
func (k Keys) ClubPlayers(id string) string   { return fmt.Sprintf("%s:club:%s:players", k.Prefix, id) }
func (k Keys) ClubFixtures(id string) string  { return fmt.Sprintf("%s:club:%s:fixtures", k.Prefix, id) }
func (k Keys) PlayerNode(id string) string    { return fmt.Sprintf("%s:player:%s:node", k.Prefix, id) }
func (k Keys) FixtureNode(id string) string   { return fmt.Sprintf("%s:fixture:%s:node", k.Prefix, id) }
func (k Keys) Standings(groupID string) string {
	return fmt.Sprintf("%s:standings:%s:table", k.Prefix, groupID)
}

// TypePrefix returns the namespace segment shared by every key of one
// entity type, for store-side prefix deletes
func (k Keys) TypePrefix(entityType string) string {
	return fmt.Sprintf("%s:%s:", k.Prefix, entityType)
}

// DirectKeys returns the keys that address the changed entity itself
func (k Keys) DirectKeys(entityType, id string) []string {
	switch entityType {
	case EntityClub:
		return []string{k.ClubNode(id), k.ClubList(), k.ClubPlayers(id), k.ClubFixtures(id)}
	case EntityPlayer:
		return []string{k.PlayerNode(id)}
	case EntityFixture:
		return []string{k.FixtureNode(id)}
	case EntityStandings:
		return []string{k.Standings(id)}
	default:
		return nil
	}
}

// dependents maps a changed entity type to the entity types whose cached
// aggregates may embed it. Invalidation is conservative: the dependent
// type's whole key namespace is dropped from the store, which is acceptable
// at league write rates.
var dependents = map[string][]string{
	EntityClub:    {EntityStandings, EntityPlayer},
	EntityPlayer:  {EntityClub},
	EntityFixture: {EntityStandings, EntityClub},
}

// DependentTypes returns the entity types invalidated alongside a change
func DependentTypes(entityType string) []string {
	return dependents[entityType]
}
