package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// DateLayout is the canonical storage layout for record dates.
const DateLayout = "2006-01-02"

// Spec is one ordered key/value pair describing an equipment attribute.
type Spec struct {
	Key   string
	Value string
	Order int
}

// PeriodResult stores the planned/actual flags and costs for one period bucket.
type PeriodResult struct {
	Planned    bool
	Actual     bool
	PlanCost   float64
	ActualCost float64
}

// IsZero reports whether the bucket carries no flags and no cost.
func (r PeriodResult) IsZero() bool {
	return !r.Planned && !r.Actual && r.PlanCost == 0 && r.ActualCost == 0
}

// Record is one maintenance/equipment row. HasChildren, Depth and Rollup are
// derived by BuildHierarchy and are never persisted.
type Record struct {
	ID        string
	ParentID  string
	Position  int
	Name      string
	Code      string
	Cycle     float64
	Installed string
	Specs     []Spec
	Results   map[string]PeriodResult
	Extra     map[string]string

	CreatedByActor string
	UpdatedByActor string
	UpdatedByType  ActorType
	CreatedAt      time.Time
	UpdatedAt      time.Time

	HasChildren bool
	Depth       int
	Rollup      map[string]PeriodResult
}

// RecordInput holds values for NewRecord.
type RecordInput struct {
	ID        string
	ParentID  string
	Position  int
	Name      string
	Code      string
	Cycle     float64
	Installed string
	Specs     []Spec
	Results   map[string]PeriodResult
}

// NewRecord validates input and constructs a record.
func NewRecord(in RecordInput, now time.Time) (Record, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	if in.ID == "" {
		return Record{}, ErrInvalidID
	}
	if in.ParentID == in.ID {
		return Record{}, ErrParentCycle
	}
	if in.Name == "" {
		return Record{}, ErrInvalidName
	}
	if in.Position < 0 {
		return Record{}, ErrInvalidPosition
	}
	if math.IsNaN(in.Cycle) || math.IsInf(in.Cycle, 0) || in.Cycle < 0 {
		return Record{}, ErrInvalidCycle
	}
	installed, err := NormalizeDate(in.Installed)
	if err != nil {
		return Record{}, err
	}
	specs, err := normalizeSpecs(in.Specs)
	if err != nil {
		return Record{}, err
	}
	results := make(map[string]PeriodResult, len(in.Results))
	for key, res := range in.Results {
		key = strings.TrimSpace(key)
		if key == "" {
			return Record{}, ErrInvalidPeriodKey
		}
		if res.PlanCost < 0 || res.ActualCost < 0 {
			return Record{}, ErrInvalidCost
		}
		results[key] = res
	}

	return Record{
		ID:        in.ID,
		ParentID:  in.ParentID,
		Position:  in.Position,
		Name:      in.Name,
		Code:      in.Code,
		Cycle:     in.Cycle,
		Installed: installed,
		Specs:     specs,
		Results:   results,
		Extra:     map[string]string{},

		CreatedByActor: DefaultActorID,
		UpdatedByActor: DefaultActorID,
		UpdatedByType:  ActorTypeUser,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

// Clone deep-copies the record so callers can modify the copy freely.
func (r Record) Clone() Record {
	out := r
	out.Specs = slices.Clone(r.Specs)
	out.Results = cloneResults(r.Results)
	out.Rollup = cloneResults(r.Rollup)
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// SpecValue returns the value for key, or "" when the record has no such pair.
func (r Record) SpecValue(key string) (string, bool) {
	for _, spec := range r.Specs {
		if spec.Key == key {
			return spec.Value, true
		}
	}
	return "", false
}

// WithSpec returns a copy with key set to value, appending the pair after the
// current highest order when it does not exist yet. A blank value for a
// missing key leaves the specs unchanged.
func (r Record) WithSpec(key, value string) Record {
	out := r.Clone()
	for idx := range out.Specs {
		if out.Specs[idx].Key == key {
			out.Specs[idx].Value = value
			return out
		}
	}
	if value == "" {
		return out
	}
	order := 0
	for _, spec := range out.Specs {
		if spec.Order >= order {
			order = spec.Order + 1
		}
	}
	out.Specs = append(out.Specs, Spec{Key: key, Value: value, Order: order})
	return out
}

// Result returns the bucket for period. Records with children read their rollup.
func (r Record) Result(period string) PeriodResult {
	if r.HasChildren {
		return r.Rollup[period]
	}
	return r.Results[period]
}

// WithResult returns a copy whose own bucket for period is res.
func (r Record) WithResult(period string, res PeriodResult) Record {
	out := r.Clone()
	if out.Results == nil {
		out.Results = map[string]PeriodResult{}
	}
	out.Results[period] = res
	return out
}

// Touch stamps the update time and actor.
func (r *Record) Touch(actorID string, actorType ActorType, now time.Time) {
	if actorID == "" {
		actorID = DefaultActorID
	}
	if actorType == "" {
		actorType = ActorTypeUser
	}
	r.UpdatedByActor = actorID
	r.UpdatedByType = actorType
	r.UpdatedAt = now.UTC()
}

// NormalizeDate parses common date spellings and returns the canonical layout.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format(DateLayout), nil
		}
	}
	return "", ErrInvalidDate
}

// dateLayouts lists accepted input spellings in match order.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"2006-01",
	"2006/01",
	time.RFC3339,
}

// normalizeSpecs trims keys, rejects blanks/duplicates and sorts by order.
func normalizeSpecs(in []Spec) ([]Spec, error) {
	out := make([]Spec, 0, len(in))
	seen := map[string]struct{}{}
	for _, spec := range in {
		spec.Key = strings.TrimSpace(spec.Key)
		spec.Value = strings.TrimSpace(spec.Value)
		if spec.Key == "" {
			return nil, ErrInvalidSpecKey
		}
		if _, ok := seen[spec.Key]; ok {
			return nil, ErrInvalidSpecKey
		}
		seen[spec.Key] = struct{}{}
		out = append(out, spec)
	}
	slices.SortStableFunc(out, func(a, b Spec) int {
		return a.Order - b.Order
	})
	return out, nil
}

// cloneResults copies a result map, preserving nil.
func cloneResults(in map[string]PeriodResult) map[string]PeriodResult {
	if in == nil {
		return nil
	}
	out := make(map[string]PeriodResult, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
