package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/advisor/internal/db/dbtest"
)

type stores struct {
	polls   PollStore
	credits CreditStore
	log     Log
}

func eachStore(t *testing.T, fn func(t *testing.T, s stores)) {
	t.Run("memory", func(t *testing.T) {
		m := NewMemoryStore()
		fn(t, stores{polls: m, credits: m, log: NewMemoryLog()})
	})
	t.Run("sqlite", func(t *testing.T) {
		s := NewSQLStore(dbtest.NewSQLite(t))
		fn(t, stores{polls: s, credits: s, log: s})
	})
}

func TestNewPoll_Validation(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
	}{
		{"blank question", "  ", []string{"a", "b"}},
		{"one option", "Best seed?", []string{"a"}},
		{"five options", "Best seed?", []string{"a", "b", "c", "d", "e"}},
		{"blank option", "Best seed?", []string{"a", " "}},
		{"long question", strings.Repeat("q", maxQuestionLen+1), []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoll(tt.question, tt.options)
			assert.ErrorIs(t, err, ErrInvalidPoll)
		})
	}

	p, err := NewPoll(" Which fertilizer? ", []string{" Urea", "DAP ", "Compost"})
	require.NoError(t, err)
	assert.Equal(t, "Which fertilizer?", p.Question)
	assert.Equal(t, []string{"Urea", "DAP", "Compost"}, p.Options)
	assert.Equal(t, []int{0, 0, 0}, p.Votes)
	assert.NotEmpty(t, p.ID)
}

func TestPolls_Vote(t *testing.T) {
	eachStore(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		polls := NewPolls(s.polls)

		p, err := polls.Create(ctx, "Which crop this season?", []string{"Rice", "Maize"})
		require.NoError(t, err)

		got, err := polls.Vote(ctx, p.ID, "farmer-1", 1)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, got.Votes)

		_, err = polls.Vote(ctx, p.ID, "farmer-1", 0)
		assert.ErrorIs(t, err, ErrAlreadyVoted)

		_, err = polls.Vote(ctx, p.ID, "farmer-2", 2)
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = polls.Vote(ctx, p.ID, "farmer-2", -1)
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = polls.Vote(ctx, p.ID, " ", 0)
		assert.ErrorIs(t, err, ErrInvalidOption)

		got, err = polls.Vote(ctx, p.ID, "farmer-2", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Total())

		_, err = polls.Vote(ctx, "missing", "farmer-1", 0)
		assert.ErrorIs(t, err, ErrPollNotFound)
		_, err = polls.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrPollNotFound)
	})
}

func TestPolls_List(t *testing.T) {
	eachStore(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		polls := NewPolls(s.polls)

		a, err := polls.Create(ctx, "Irrigation?", []string{"Drip", "Flood"})
		require.NoError(t, err)
		b, err := polls.Create(ctx, "Storage?", []string{"Silo", "Sack", "Cold store"})
		require.NoError(t, err)
		_, err = polls.Vote(ctx, b.ID, "v1", 2)
		require.NoError(t, err)

		list, err := polls.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)

		byID := map[string]Poll{}
		for _, p := range list {
			byID[p.ID] = p
		}
		assert.Equal(t, []int{0, 0}, byID[a.ID].Votes)
		assert.Equal(t, []int{0, 0, 1}, byID[b.ID].Votes)
		assert.Equal(t, []string{"Silo", "Sack", "Cold store"}, byID[b.ID].Options)
	})
}

func TestCompleteSurvey(t *testing.T) {
	eachStore(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		answers := []string{"Rice", "2 ha", "Loam", "Canal", "Urea", "Yes"}

		c, err := s.credits.Credits(ctx, "farmer-9")
		require.NoError(t, err)
		assert.Equal(t, 0, c.Credits)

		c, err = CompleteSurvey(ctx, s.credits, "farmer-9", answers)
		require.NoError(t, err)
		assert.Equal(t, SurveyReward, c.Credits)
		assert.Equal(t, 1, c.Surveys)

		c, err = CompleteSurvey(ctx, s.credits, "farmer-9", answers)
		require.NoError(t, err)
		assert.Equal(t, 2*SurveyReward, c.Credits)
		assert.Equal(t, 2, c.Surveys)

		c, err = s.credits.Credits(ctx, "farmer-9")
		require.NoError(t, err)
		assert.Equal(t, 40, c.Credits)

		_, err = CompleteSurvey(ctx, s.credits, "farmer-9", answers[:5])
		assert.ErrorIs(t, err, ErrIncompleteSurvey)
		blank := append([]string(nil), answers...)
		blank[3] = ""
		_, err = CompleteSurvey(ctx, s.credits, "farmer-9", blank)
		assert.ErrorIs(t, err, ErrIncompleteSurvey)
		_, err = CompleteSurvey(ctx, s.credits, "", answers)
		assert.ErrorIs(t, err, ErrIncompleteSurvey)
	})
}

func TestLog_CapAndOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		limit := Caps[KindRecommendation]

		for i := 0; i < limit+5; i++ {
			require.NoError(t, s.log.Append(ctx, KindRecommendation, map[string]int{"n": i}))
		}
		require.NoError(t, s.log.Append(ctx, KindBehaviour, map[string]string{"action": "open"}))

		events, err := s.log.Recent(ctx, KindRecommendation, 0)
		require.NoError(t, err)
		require.Len(t, events, limit)

		var newest, oldest map[string]int
		require.NoError(t, json.Unmarshal(events[0].Payload, &newest))
		require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &oldest))
		assert.Equal(t, limit+4, newest["n"])
		assert.Equal(t, 5, oldest["n"])

		few, err := s.log.Recent(ctx, KindRecommendation, 3)
		require.NoError(t, err)
		assert.Len(t, few, 3)

		behaviour, err := s.log.Recent(ctx, KindBehaviour, 10)
		require.NoError(t, err)
		require.Len(t, behaviour, 1)
		assert.Equal(t, KindBehaviour, behaviour[0].Kind)
	})
}

func TestLog_UnknownKind(t *testing.T) {
	eachStore(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		err := s.log.Append(ctx, Kind("clicks"), map[string]int{"n": 1})
		assert.ErrorIs(t, err, ErrUnknownKind)

		_, err = s.log.Recent(ctx, Kind("clicks"), 5)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestSQLStore_DuplicateVoteInsert(t *testing.T) {
	ctx := context.Background()
	store := NewSQLStore(dbtest.NewSQLite(t))
	p, err := NewPoll("Best market day?", []string{"Sunday", "Wednesday"})
	require.NoError(t, err)
	require.NoError(t, store.CreatePoll(ctx, p))

	require.NoError(t, store.RecordVote(ctx, p.ID, "farmer-9", 0))
	err = store.RecordVote(ctx, p.ID, "farmer-9", 1)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	got, err := store.GetPoll(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, got.Votes)
}

func TestLog_UnencodablePayload(t *testing.T) {
	err := NewMemoryLog().Append(context.Background(), KindBehaviour, make(chan int))
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	polls := NewPolls(store)
	p, err := polls.Create(ctx, "Weather app useful?", []string{"Yes", "No"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	dup := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := polls.Vote(ctx, p.ID, fmt.Sprintf("v%d", i%25), i%2)
			if errors.Is(err, ErrAlreadyVoted) {
				mu.Lock()
				dup++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	got, err := polls.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Total())
	assert.Equal(t, 25, dup)
}
