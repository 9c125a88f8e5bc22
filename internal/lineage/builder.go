package lineage

import "strings"

// ViewDefinition is one materialized view row from system.tables.
// DependenciesDatabase and DependenciesTable are parallel slices of explicit
// dependency pairs reported by the server catalog; they recover dependencies
// the text parser can miss (e.g. references through indirection).
type ViewDefinition struct {
	Database             string
	Name                 string
	CreateTableQuery     string
	DependenciesDatabase []string
	DependenciesTable    []string
}

// TableSchema is one schema row used to resolve authoritative engine names.
type TableSchema struct {
	Database string
	Name     string
	Engine   string
}

// BuildLineage assembles a lineage graph from materialized view definitions.
// The optional schema is consulted once, at node creation time, to resolve
// authoritative engine names; discovered tables without a schema entry get
// a structural classification instead. Malformed DDL never fails: a view
// with no parseable SELECT still yields its own node and an implicit target.
func BuildLineage(views []ViewDefinition, schema []TableSchema) *Graph {
	g := NewGraph()

	engineLookup := make(map[string]string, len(schema))
	for _, t := range schema {
		engineLookup[t.Database+"."+t.Name] = t.Engine
	}

	for _, view := range views {
		mvFullName := view.Database + "." + view.Name
		g.AddNode(&TableNode{
			Database: view.Database,
			Name:     view.Name,
			Engine:   Engine{Kind: EngineMaterializedView},
		})
		g.MVNames[mvFullName] = struct{}{}

		sources := ParseSourceTables(view.CreateTableQuery, view.Database)
		sources = mergeDependencies(sources, view.DependenciesDatabase, view.DependenciesTable)

		for _, source := range sources {
			if !g.HasNode(source) {
				db, name := splitFullName(source, view.Database)
				engine := Engine{Kind: EngineSource}
				if actual, ok := engineLookup[source]; ok {
					engine = ResolvedEngine(actual)
				}
				g.AddNode(&TableNode{Database: db, Name: name, Engine: engine})
			}
			g.AddEdge(source, mvFullName, mvFullName)
		}

		target, isImplicit := ParseTargetTable(view.CreateTableQuery, view.Database, view.Name)
		if !g.HasNode(target) {
			db, name := splitFullName(target, view.Database)
			var engine Engine
			if actual, ok := engineLookup[target]; ok {
				engine = ResolvedEngine(actual)
			} else if isImplicit {
				engine = Engine{Kind: EngineImplicit}
			} else {
				engine = Engine{Kind: EngineTarget}
			}
			g.AddNode(&TableNode{Database: db, Name: name, Engine: engine})
		}
		g.TargetNames[target] = struct{}{}
		g.AddEdge(mvFullName, target, mvFullName)
	}

	return g
}

// mergeDependencies appends explicit catalog dependency pairs that the text
// parser did not already find, preserving their order after the parsed
// sources. Mismatched slice lengths are tolerated by zipping to the shorter.
func mergeDependencies(sources, depDatabases, depTables []string) []string {
	n := len(depDatabases)
	if len(depTables) < n {
		n = len(depTables)
	}
	for i := 0; i < n; i++ {
		dep := depDatabases[i] + "." + depTables[i]
		if !containsString(sources, dep) {
			sources = append(sources, dep)
		}
	}
	return sources
}

// splitFullName splits "database.name" on the first dot; an unqualified
// name falls back to the containing database.
func splitFullName(fullName, defaultDatabase string) (database, name string) {
	parts := strings.SplitN(fullName, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultDatabase, parts[0]
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
