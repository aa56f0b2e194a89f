package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

func bundle(subquery string) model.RetrievedBundle {
	return model.RetrievedBundle{
		SubQuery: subquery,
		Kind:     model.QueryCharacter,
		Entities: []model.EntitySnapshot{{
			Entity:    model.NewCharacter("Alice", "A hero", "plain"),
			Neighbors: []model.Neighbor{{Name: "Castle", Relationship: "lives in", Strength: 0.5}},
		}},
		Communities: []model.Community{},
	}
}

func TestCheckCacheEmptySkipsGeneration(t *testing.T) {
	mock := &MockLLM{Response: `{"is_sufficient": true}`}
	mem := New(mock, Options{})

	ok, bundles := mem.CheckCache(context.Background(), "anything")
	assert.False(t, ok)
	assert.Empty(t, bundles)
	assert.Empty(t, mock.Prompts)
}

func TestCheckCacheExactKey(t *testing.T) {
	mock := &MockLLM{Response: `{"is_sufficient": true, "reason": "covered"}`}
	mem := New(mock, Options{})
	mem.AddTurn("q1", "r1", "s1", []model.RetrievedBundle{bundle("Who is Alice?"), bundle("Where is the castle?")})

	ok, bundles := mem.CheckCache(context.Background(), "Who is Alice?")
	require.True(t, ok)
	require.Len(t, bundles, 1)
	assert.Equal(t, "Who is Alice?", bundles[0].SubQuery)
	assert.NotContains(t, mock.Prompts[0], "Where is the castle?")
}

func TestCheckCacheFallsBackToRecentTurns(t *testing.T) {
	mock := &MockLLM{Response: `{"is_sufficient": true}`}
	mem := New(mock, Options{})
	mem.AddTurn("q1", "r1", "s1", []model.RetrievedBundle{bundle("a")})
	mem.AddTurn("q2", "r2", "s2", []model.RetrievedBundle{bundle("b")})

	ok, bundles := mem.CheckCache(context.Background(), "something else")
	require.True(t, ok)
	require.Len(t, bundles, 2)
	assert.Equal(t, "a", bundles[0].SubQuery)
	assert.Equal(t, "b", bundles[1].SubQuery)
}

func TestCheckCacheInsufficientOrFailing(t *testing.T) {
	for name, mock := range map[string]*MockLLM{
		"insufficient": {Response: `{"is_sufficient": false}`},
		"error":        {Err: errors.New("quota")},
		"garbage":      {Response: "sure"},
	} {
		t.Run(name, func(t *testing.T) {
			mem := New(mock, Options{})
			mem.AddTurn("q", "r", "s", []model.RetrievedBundle{bundle("a")})
			ok, bundles := mem.CheckCache(context.Background(), "a")
			assert.False(t, ok)
			assert.Empty(t, bundles)
		})
	}
}

func TestCheckCacheTruncatesContext(t *testing.T) {
	mock := &MockLLM{Response: `{"is_sufficient": false}`}
	mem := New(mock, Options{CacheBudget: 40})
	mem.AddTurn("q", "r", "s", []model.RetrievedBundle{bundle("a")})

	mem.CheckCache(context.Background(), "a")
	require.Len(t, mock.Prompts, 1)
	full := compactJSON([]model.RetrievedBundle{bundle("a")})
	assert.Contains(t, mock.Prompts[0], full[:40])
	assert.NotContains(t, mock.Prompts[0], full)
}

func TestDetectCallback(t *testing.T) {
	mock := &MockLLM{}
	mem := New(mock, Options{HistoryLimit: 2})

	ok, indices := mem.DetectCallback(context.Background(), "what did you say?")
	assert.False(t, ok)
	assert.Empty(t, indices)
	assert.Empty(t, mock.Prompts)

	mem.AddTurn("q0", "r0", "first summary", nil)
	mem.AddTurn("q1", "r1", "second summary", nil)
	mem.AddTurn("q2", "r2", "third summary", nil)

	mock.Response = `{"needs_callback": true, "related_turn_indices": [1], "reason": "refers back"}`
	ok, indices = mem.DetectCallback(context.Background(), "what did you say?")
	require.True(t, ok)
	assert.Equal(t, []int{1}, indices)
	assert.NotContains(t, mock.Prompts[0], "first summary")
	assert.Contains(t, mock.Prompts[0], "Turn 0: second summary")

	// indices are relative to the two-turn window
	assert.Equal(t, "[Earlier conversation]\nQ: q2\nA: r2", mem.GetCallbackContext(indices))
}

func TestDetectCallbackFailure(t *testing.T) {
	mem := New(&MockLLM{Err: errors.New("down")}, Options{})
	mem.AddTurn("q", "r", "s", nil)

	ok, indices := mem.DetectCallback(context.Background(), "x")
	assert.False(t, ok)
	assert.Empty(t, indices)
}

func TestGetCallbackContextSkipsOutOfRange(t *testing.T) {
	mem := New(&MockLLM{}, Options{})
	mem.AddTurn("q0", "r0", "s0", nil)
	mem.AddTurn("q1", "r1", "s1", nil)

	got := mem.GetCallbackContext([]int{-1, 1, 7, 0})
	assert.Equal(t, "[Earlier conversation]\nQ: q1\nA: r1\n\n[Earlier conversation]\nQ: q0\nA: r0", got)
	assert.Empty(t, mem.GetCallbackContext(nil))
}

func TestRecentContext(t *testing.T) {
	mem := New(&MockLLM{}, Options{})
	assert.Empty(t, mem.RecentContext(DefaultRecentTurns))

	for _, q := range []string{"a", "b", "c", "d"} {
		mem.AddTurn(q, strings.ToUpper(q), "", nil)
	}
	assert.Equal(t, "Q: b\nA: B\n\nQ: c\nA: C\n\nQ: d\nA: D", mem.RecentContext(3))
}

func TestAddTurnUpsertsInPlace(t *testing.T) {
	mem := New(&MockLLM{}, Options{})
	first := bundle("A")
	mem.AddTurn("q1", "r1", "s1", []model.RetrievedBundle{first, bundle("B"), {Kind: model.QueryEvent}})

	updated := bundle("A")
	updated.Note = "newer"
	mem.AddTurn("q2", "r2", "s2", []model.RetrievedBundle{updated})

	assert.Equal(t, []string{"A", "B"}, mem.Cache().Keys())
	got, ok := mem.Cache().Get("A")
	require.True(t, ok)
	assert.Equal(t, "newer", got.Note)
	assert.Len(t, mem.Turns(), 2)
}

func TestClearOldCacheFIFO(t *testing.T) {
	mem := New(&MockLLM{}, Options{})
	for _, k := range []string{"A", "B", "C", "D", "E"} {
		mem.AddTurn(k, "", "", []model.RetrievedBundle{bundle(k)})
	}

	mem.ClearOldCache(2)
	assert.Equal(t, []string{"D", "E"}, mem.Cache().Keys())
	_, ok := mem.Cache().Get("A")
	assert.False(t, ok)

	mem.ClearOldCache(5)
	assert.Equal(t, 2, mem.Cache().Len())
}

func TestSnapshotJSONKeepsOrder(t *testing.T) {
	mem := New(&MockLLM{}, Options{})
	mem.AddTurn("q1", "r1", "s1", []model.RetrievedBundle{bundle("zeta"), bundle("alpha")})
	mem.AddTurn("q2", "r2", "s2", []model.RetrievedBundle{bundle("mid")})

	data, err := json.Marshal(mem.Snapshot())
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(data), `"zeta":`), strings.Index(string(data), `"alpha":`))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := New(&MockLLM{}, Options{})
	restored.Restore(snap)
	assert.Equal(t, mem.Turns(), restored.Turns())
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, restored.Cache().Keys())
	got, _ := restored.Cache().Get("alpha")
	want, _ := mem.Cache().Get("alpha")
	assert.Equal(t, want, got)
}

func TestSnapshotMsgpack(t *testing.T) {
	mem := New(&MockLLM{}, Options{})
	mem.AddTurn("q1", "r1", "s1", []model.RetrievedBundle{bundle("zeta"), bundle("alpha")})

	data, err := msgpack.Marshal(mem.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, msgpack.Unmarshal(data, &snap))
	require.NotNil(t, snap.Cache)
	assert.Equal(t, []string{"zeta", "alpha"}, snap.Cache.Keys())
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, "q1", snap.Turns[0].Query)
}

func TestEmptySnapshot(t *testing.T) {
	data, err := json.Marshal(New(&MockLLM{}, Options{}).Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"turns": [], "cache": {}}`, string(data))

	restored := New(&MockLLM{}, Options{})
	restored.Restore(Snapshot{})
	assert.Equal(t, 0, restored.Cache().Len())
}
