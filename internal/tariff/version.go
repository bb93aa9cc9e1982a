package tariff

import (
	"fmt"
	"sort"
	"time"
)

// Version is an immutable, dated snapshot of one bracket table, one parameter
// set and its regional overrides. Quotes computed against a version are
// reproducible for as long as the version exists.
type Version struct {
	ID            int64
	Name          string
	EffectiveFrom time.Time

	table     Table
	params    ParameterSet
	overrides map[string]RegionalOverride
}

// NewVersion validates every component and assembles a Version.
func NewVersion(id int64, name string, effectiveFrom time.Time, table Table, params ParameterSet, overrides []RegionalOverride) (*Version, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("version %d parameters: %w", id, err)
	}
	if len(table.rows) == 0 {
		return nil, fmt.Errorf("%w: version %d has an empty tariff table", ErrInvalidInput, id)
	}

	byState := make(map[string]RegionalOverride, len(overrides))
	for _, o := range overrides {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("version %d: %w", id, err)
		}
		state := normalizeState(o.State)
		if _, dup := byState[state]; dup {
			return nil, fmt.Errorf("%w: version %d has two overrides for state %s", ErrInvalidInput, id, state)
		}
		o.State = state
		byState[state] = o
	}

	return &Version{
		ID:            id,
		Name:          name,
		EffectiveFrom: effectiveFrom,
		table:         table,
		params:        params,
		overrides:     byState,
	}, nil
}

// Table returns the version's bracket table.
func (v *Version) Table() Table { return v.table }

// Params returns the version-wide parameter set, without regional overrides.
func (v *Version) Params() ParameterSet { return v.params }

// ParamsFor returns the effective parameters for destinations in state.
func (v *Version) ParamsFor(state string) ParameterSet {
	if o, ok := v.overrides[normalizeState(state)]; ok {
		return o.Apply(v.params)
	}
	return v.params
}

// Overrides returns the regional overrides sorted by state.
func (v *Version) Overrides() []RegionalOverride {
	out := make([]RegionalOverride, 0, len(v.overrides))
	for _, o := range v.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}
