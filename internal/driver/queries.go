package driver

var IndexQueries = []string{
	"CREATE INDEX ON :Entity(name);",
	"CREATE INDEX ON :Entity(type);",
	"CREATE INDEX ON :Community(id);",
}

const (
	// ClearGraphQuery removes everything a previous export wrote.
	ClearGraphQuery = `
		MATCH (n)
		WHERE n:Entity OR n:Community
		DETACH DELETE n
	`

	SaveEntitiesQuery = `
		UNWIND $entities AS e
		MERGE (n:Entity {name: e.name})
		SET n.type = e.type,
			n.persona = e.persona,
			n.style_description = e.style_description,
			n.style_exemplars = e.style_exemplars,
			n.avatar_detail = e.avatar_detail,
			n.description = e.description,
			n.stub = e.stub
		RETURN count(n) AS count
	`

	MarkCharactersQuery = `
		UNWIND $names AS name
		MATCH (n:Entity {name: name})
		SET n:Character
		RETURN count(n) AS count
	`

	SaveRelationshipsQuery = `
		UNWIND $relationships AS r
		MATCH (source:Entity {name: r.source})
		MATCH (target:Entity {name: r.target})
		MERGE (source)-[e:RELATES_TO {uuid: r.uuid}]->(target)
		SET e.description = r.description,
			e.attitude = r.attitude,
			e.strength = r.strength
		RETURN count(e) AS count
	`

	SaveCommunitiesQuery = `
		UNWIND $communities AS c
		MERGE (n:Community {id: c.id})
		SET n.type = c.type,
			n.size = c.size,
			n.summary = c.summary
		WITH n, c
		UNWIND c.members AS member
		MATCH (m:Entity {name: member})
		MERGE (n)-[:HAS_MEMBER]->(m)
		RETURN count(DISTINCT n) AS count
	`

	CountEntitiesQuery = `
		MATCH (n:Entity)
		RETURN count(n) AS count
	`
)
