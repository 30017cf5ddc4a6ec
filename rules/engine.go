package rules

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/agrisense/advisor/crops"
)

// MaxPicks is how many crops a recommendation returns at most
const MaxPicks = 3

// costLimit bounds the work a single rule may do per evaluation
const costLimit = 1000000

// Engine compiles crop rules to CEL programs and evaluates them against
// field conditions. Safe for concurrent use.
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

type Option func(*Engine)

// WithCache replaces the default in-memory rules cache
func WithCache(c RulesCache) Option {
	return func(en *Engine) { en.cache = c }
}

// NewEngine creates an engine over store and compiles every active rule
func NewEngine(store RuleStore, opts ...Option) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	en := &Engine{
		env:      env,
		store:    store,
		cache:    NewInMemoryRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
	}
	for _, opt := range opts {
		opt(en)
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return en, nil
}

// NewEnv declares the single `field` fact object rules are written against
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("field", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// CompileRule compiles an expression and caches the program under ruleID.
// Expressions whose static type cannot be boolean are rejected.
func (en *Engine) CompileRule(ruleID, expression string) error {
	prog, err := en.compile(expression)
	if err != nil {
		return err
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

func (en *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	switch ast.OutputType().Kind() {
	case types.BoolKind, types.DynKind:
	default:
		return nil, fmt.Errorf("compile error: expression must be boolean, got %s", ast.OutputType())
	}

	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

// CompileAllRules compiles all active rules and primes the cache
func (en *Engine) CompileAllRules() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
			return fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(rules)
	return nil
}

// Recommend returns up to MaxPicks crops for the conditions. Every matching
// rule contributes all its picks in priority order, duplicates included, and
// the fallback triple is used when nothing matches.
func (en *Engine) Recommend(c Conditions) ([]CropPick, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rules, err := en.activeRules()
	if err != nil {
		return nil, err
	}

	var picks []Pick
	for i, res := range en.evaluate(rules, c.facts()) {
		if res.Matched {
			picks = append(picks, rules[i].Crops...)
		}
	}
	if len(picks) == 0 {
		picks = FallbackPicks()
	}
	if len(picks) > MaxPicks {
		picks = picks[:MaxPicks]
	}

	out := make([]CropPick, 0, len(picks))
	for _, p := range picks {
		info := crops.Lookup(p.Crop)
		out = append(out, CropPick{
			Crop:   p.Crop,
			Name:   info.Name,
			Reason: p.Reason,
			Sow:    info.Sow,
			Water:  info.Water,
		})
	}
	return out, nil
}

// Evaluate evaluates a single rule against the conditions
func (en *Engine) Evaluate(ruleID string, c Conditions) (*EvaluationResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rule, err := en.store.Get(ruleID)
	if err != nil {
		return nil, err
	}

	res := en.evaluate([]*Rule{rule}, c.facts())[0]
	return res, res.Error
}

// EvaluateAll evaluates every active rule in priority order. A rule that
// fails to evaluate is reported in its result and does not stop the rest.
func (en *Engine) EvaluateAll(c Conditions) ([]*EvaluationResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rules, err := en.activeRules()
	if err != nil {
		return nil, err
	}
	return en.evaluate(rules, c.facts()), nil
}

// activeRules reads through the cache
func (en *Engine) activeRules() ([]*Rule, error) {
	rules := en.cache.Get()
	if rules != nil {
		return rules, nil
	}

	rules, err := en.store.ListActive()
	if err != nil {
		return nil, err
	}
	sortRules(rules)
	en.cache.Set(rules)
	return rules, nil
}

// evaluate returns one result per rule, in the same order
func (en *Engine) evaluate(rules []*Rule, facts map[string]any) []*EvaluationResult {
	results := make([]*EvaluationResult, 0, len(rules))
	for _, rule := range rules {
		res := &EvaluationResult{RuleID: rule.ID, RuleName: rule.Name}
		results = append(results, res)

		prog, err := en.program(rule)
		if err != nil {
			res.Error = err
			continue
		}

		out, details, err := prog.Eval(facts)
		if err != nil {
			res.Error = err
			continue
		}

		if b, ok := out.Value().(bool); ok {
			res.Matched = b
		}
		if details != nil {
			res.Trace = details.State()
		}
	}
	return results
}

// program returns the compiled program for rule, compiling it if the store
// was changed behind this engine's back.
func (en *Engine) program(rule *Rule) (cel.Program, error) {
	en.mu.RLock()
	prog, ok := en.programs[rule.ID]
	en.mu.RUnlock()
	if ok {
		return prog, nil
	}

	if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
		return nil, fmt.Errorf("rule %s is not compiled: %w", rule.ID, err)
	}

	en.mu.RLock()
	defer en.mu.RUnlock()
	return en.programs[rule.ID], nil
}

// GetRule returns a stored rule
func (en *Engine) GetRule(ruleID string) (*Rule, error) {
	return en.store.Get(ruleID)
}

// ListRules returns every stored rule, inactive ones included
func (en *Engine) ListRules() ([]*Rule, error) {
	return en.store.List()
}

// AddRule validates and compiles a rule before storing it
func (en *Engine) AddRule(r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	// checked before compiling so an existing program is not overwritten
	if _, err := en.store.Get(r.ID); err == nil {
		return fmt.Errorf("rule %s: %w", r.ID, ErrRuleExists)
	} else if !errors.Is(err, ErrRuleNotFound) {
		return err
	}

	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	if err := en.store.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()
	return nil
}

// UpdateRule validates and recompiles a rule, then replaces it in the store.
// On failure the previously compiled program is kept.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	prog, err := en.compile(r.Expression)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.mu.Lock()
	en.programs[r.ID] = prog
	en.mu.Unlock()

	en.cache.Invalidate()
	return nil
}

// DeleteRule removes a rule from the store and its compiled program
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()
	return nil
}
