package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

func makeProfiles(ids ...string) []models.Profile {
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Profile{ID: id, DisplayName: "user-" + id})
	}
	return out
}

func pendingIDs(q *Queue) []string {
	ids := make([]string, 0, len(q.pending))
	for _, p := range q.pending {
		ids = append(ids, p.ID)
	}
	return ids
}

// assertNoDuplicates проверяет главный инвариант очереди:
// среди текущей анкеты и списка ожидания нет повторов идентификаторов.
func assertNoDuplicates(t *testing.T, q *Queue) {
	t.Helper()
	seen := map[string]bool{}
	if cur := q.Current(); cur != nil {
		seen[cur.ID] = true
	}
	for _, p := range q.pending {
		assert.Falsef(t, seen[p.ID], "duplicate id %s in queue", p.ID)
		seen[p.ID] = true
	}
}

func TestQueue_ReplaceAll(t *testing.T) {
	tests := []struct {
		name            string
		items           []models.Profile
		expectedCurrent string
		expectedPending []string
	}{
		{
			name:            "обычная партия",
			items:           makeProfiles("a", "b", "c"),
			expectedCurrent: "a",
			expectedPending: []string{"b", "c"},
		},
		{
			name:            "пустая партия опустошает очередь",
			items:           nil,
			expectedCurrent: "",
			expectedPending: []string{},
		},
		{
			name:            "дубликаты внутри партии отбрасываются",
			items:           makeProfiles("a", "b", "a", "c", "b"),
			expectedCurrent: "a",
			expectedPending: []string{"b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New()
			q.ReplaceAll(makeProfiles("old1", "old2"))
			q.ReplaceAll(tt.items)

			if tt.expectedCurrent == "" {
				assert.Nil(t, q.Current())
			} else {
				require.NotNil(t, q.Current())
				assert.Equal(t, tt.expectedCurrent, q.Current().ID)
			}
			assert.Equal(t, tt.expectedPending, pendingIDs(q))
			assertNoDuplicates(t, q)
		})
	}
}

func TestQueue_Merge_PreservesFIFO(t *testing.T) {
	q := New()
	q.ReplaceAll(makeProfiles("x", "y"))

	// Новая партия целиком из новых анкет должна встать в хвост
	// в исходном относительном порядке.
	q.Merge(makeProfiles("a", "b", "c"))

	require.NotNil(t, q.Current())
	assert.Equal(t, "x", q.Current().ID)
	assert.Equal(t, []string{"y", "a", "b", "c"}, pendingIDs(q))
}

func TestQueue_Merge_DropsKnownIDs(t *testing.T) {
	q := New()
	q.ReplaceAll(makeProfiles("x", "y"))

	// "x" совпадает с текущей, "y" уже в ожидании — оба отбрасываются.
	q.Merge(makeProfiles("x", "n1", "y", "n2"))

	assert.Equal(t, "x", q.Current().ID)
	assert.Equal(t, []string{"y", "n1", "n2"}, pendingIDs(q))
	assertNoDuplicates(t, q)
}

func TestQueue_Merge_IntoExhaustedQueue(t *testing.T) {
	q := New()
	require.Nil(t, q.Current())

	q.Merge(makeProfiles("p", "q"))

	require.NotNil(t, q.Current())
	assert.Equal(t, "p", q.Current().ID)
	assert.Equal(t, []string{"q"}, pendingIDs(q))
}

func TestQueue_Advance(t *testing.T) {
	q := New()
	q.ReplaceAll(makeProfiles("a", "b"))

	q.Advance()
	require.NotNil(t, q.Current())
	assert.Equal(t, "b", q.Current().ID)
	assert.Equal(t, 0, q.Len())

	// Исчерпание: список ожидания пуст, текущая анкета пропадает.
	q.Advance()
	assert.Nil(t, q.Current())

	// Повторный Advance на пустой очереди — no-op.
	q.Advance()
	assert.Nil(t, q.Current())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_AdvanceAllowsReMerge(t *testing.T) {
	q := New()
	q.ReplaceAll(makeProfiles("a", "b"))
	q.Advance() // "a" показана и выброшена

	// Идентификатор, уже покинувший очередь, может прийти снова:
	// дедупликация действует только внутри {current} ∪ pending.
	q.Merge(makeProfiles("a"))
	assert.Equal(t, []string{"a"}, pendingIDs(q))
	assertNoDuplicates(t, q)
}

func TestQueue_NoDuplicatesUnderMixedOperations(t *testing.T) {
	q := New()
	for i := 0; i < 50; i++ {
		switch i % 3 {
		case 0:
			q.Merge(makeProfiles(fmt.Sprintf("m%d", i), fmt.Sprintf("m%d", i+1)))
		case 1:
			q.Advance()
		default:
			q.Merge(makeProfiles(fmt.Sprintf("m%d", i-1)))
		}
		assertNoDuplicates(t, q)
	}
}
