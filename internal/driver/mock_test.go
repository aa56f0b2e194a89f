package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type executed struct {
	Query  string
	Params map[string]interface{}
}

type MockDriver struct {
	Executed     []executed
	IndicesBuilt bool
	MockResult   neo4j.EagerResult
	Err          error
	FailOnQuery  string
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executed{Query: query, Params: params})
	if m.Err != nil && (m.FailOnQuery == "" || m.FailOnQuery == query) {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	m.IndicesBuilt = true
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func (m *MockDriver) find(query string) (executed, bool) {
	for _, e := range m.Executed {
		if e.Query == query {
			return e, true
		}
	}
	return executed{}, false
}
