// Package community holds farmer polls, survey credits and the bounded
// analytics logs.
package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrAlreadyVoted     = errors.New("voter has already voted in this poll")
	ErrInvalidPoll      = errors.New("invalid poll")
	ErrInvalidOption    = errors.New("invalid poll option")
	ErrIncompleteSurvey = errors.New("survey is incomplete")
)

const (
	MinPollOptions = 2
	MaxPollOptions = 4
	maxQuestionLen = 280
)

type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	Votes     []int     `json:"votes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Total is the number of votes cast
func (p Poll) Total() int {
	n := 0
	for _, v := range p.Votes {
		n += v
	}
	return n
}

// PollStore persists polls and one vote per voter per poll
type PollStore interface {
	CreatePoll(ctx context.Context, p Poll) error
	GetPoll(ctx context.Context, id string) (Poll, error)
	ListPolls(ctx context.Context) ([]Poll, error)
	// RecordVote returns ErrPollNotFound or ErrAlreadyVoted
	RecordVote(ctx context.Context, pollID, voterID string, option int) error
}

type Credits struct {
	FarmerID  string    `json:"farmerId"`
	Credits   int       `json:"credits"`
	Surveys   int       `json:"surveys"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type CreditStore interface {
	// AddSurvey records one completed survey and adds its reward
	AddSurvey(ctx context.Context, farmerID string, reward int) (Credits, error)
	// Credits returns a zero balance for an unknown farmer
	Credits(ctx context.Context, farmerID string) (Credits, error)
}

// NewPoll validates and normalizes a poll. Question and options are trimmed;
// blank options are rejected rather than dropped.
func NewPoll(question string, options []string) (Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Poll{}, fmt.Errorf("%w: question is required", ErrInvalidPoll)
	}
	if len(question) > maxQuestionLen {
		return Poll{}, fmt.Errorf("%w: question exceeds %d characters", ErrInvalidPoll, maxQuestionLen)
	}
	if len(options) < MinPollOptions || len(options) > MaxPollOptions {
		return Poll{}, fmt.Errorf("%w: need %d to %d options, got %d", ErrInvalidPoll, MinPollOptions, MaxPollOptions, len(options))
	}

	opts := make([]string, len(options))
	for i, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return Poll{}, fmt.Errorf("%w: option %d is empty", ErrInvalidPoll, i)
		}
		opts[i] = o
	}

	return Poll{
		ID:        uuid.NewString(),
		Question:  question,
		Options:   opts,
		Votes:     make([]int, len(opts)),
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Polls struct {
	store PollStore
}

func NewPolls(store PollStore) *Polls {
	return &Polls{store: store}
}

func (p *Polls) Create(ctx context.Context, question string, options []string) (Poll, error) {
	poll, err := NewPoll(question, options)
	if err != nil {
		return Poll{}, err
	}
	if err := p.store.CreatePoll(ctx, poll); err != nil {
		return Poll{}, fmt.Errorf("failed to create poll: %w", err)
	}
	return poll, nil
}

func (p *Polls) Get(ctx context.Context, id string) (Poll, error) {
	return p.store.GetPoll(ctx, id)
}

func (p *Polls) List(ctx context.Context) ([]Poll, error) {
	return p.store.ListPolls(ctx)
}

// Vote records a vote and returns the updated poll
func (p *Polls) Vote(ctx context.Context, pollID, voterID string, option int) (Poll, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return Poll{}, fmt.Errorf("%w: voter id is required", ErrInvalidOption)
	}

	poll, err := p.store.GetPoll(ctx, pollID)
	if err != nil {
		return Poll{}, err
	}
	if option < 0 || option >= len(poll.Options) {
		return Poll{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidOption, option, len(poll.Options))
	}

	if err := p.store.RecordVote(ctx, pollID, voterID, option); err != nil {
		return Poll{}, err
	}
	return p.store.GetPoll(ctx, pollID)
}

const (
	SurveyQuestions = 6
	SurveyReward    = 20
)

// CompleteSurvey awards credits once every question has a non-blank answer
func CompleteSurvey(ctx context.Context, store CreditStore, farmerID string, answers []string) (Credits, error) {
	farmerID = strings.TrimSpace(farmerID)
	if farmerID == "" {
		return Credits{}, fmt.Errorf("%w: farmer id is required", ErrIncompleteSurvey)
	}
	if len(answers) != SurveyQuestions {
		return Credits{}, fmt.Errorf("%w: %d of %d questions answered", ErrIncompleteSurvey, len(answers), SurveyQuestions)
	}
	for i, a := range answers {
		if strings.TrimSpace(a) == "" {
			return Credits{}, fmt.Errorf("%w: question %d unanswered", ErrIncompleteSurvey, i+1)
		}
	}
	return store.AddSurvey(ctx, farmerID, SurveyReward)
}
