package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/querytree"
	"github.com/roach88/recfilter/internal/rawspec"
	"github.com/roach88/recfilter/internal/recordtypes"
	"github.com/roach88/recfilter/internal/store"
	"github.com/roach88/recfilter/internal/valueexpr"
)

// Harness executes the translated filter of a scenario against seeded
// records.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the record type library and pick the record type
//  2. Decode and compile the filter
//  3. Translate it for the scenario dialect and bind the params
//  4. If records or ids are given, seed a fresh in-memory database and
//     select the matching ids
//  5. Compare the outcome with the expectations
//
// Compile and bind errors are part of the result, not returned errors.
// Returned errors mean the scenario itself could not be executed.
func Run(scenario *Scenario) (*Result, error) {
	lib, err := recordtypes.LoadFile(scenario.Types)
	if err != nil {
		return nil, fmt.Errorf("failed to load record types: %w", err)
	}
	rt, err := lib.RecordType(scenario.RecordType)
	if err != nil {
		return nil, err
	}
	d, err := dialect.ByName(scenario.dialect())
	if err != nil {
		return nil, err
	}

	spec, err := rawspec.DecodeNode(&scenario.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to decode filter: %w", err)
	}
	values, err := rawspec.DecodeParamsNode(&scenario.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}

	result := NewResult()

	n, err := filter.Compile(spec, valueexpr.Types(rt), valueexpr.NewContext(rt))
	if err != nil {
		if !filter.IsUsageError(err) {
			return nil, err
		}
		result.CompileError = err.Error()
		evaluateExpect(scenario.Expect, result)
		return result, nil
	}

	tr, err := querytree.Translate(rt, d, n)
	if err != nil {
		return nil, fmt.Errorf("failed to translate filter: %w", err)
	}
	result.Where = tr.Where
	result.From = tr.Query.From()
	result.Params = tr.Params.Names()
	if n != nil {
		result.UsedPaths = n.UsedPropertyPaths()
	}
	if result.Statement, err = store.Statement(tr); err != nil {
		return nil, err
	}
	if result.Args, err = tr.Params.Bind(values); err != nil {
		result.AddError(fmt.Sprintf("failed to bind params: %v", err))
		evaluateExpect(scenario.Expect, result)
		return result, nil
	}

	if len(scenario.Records) > 0 || scenario.Expect.IDs != nil {
		ids, err := execute(rt, tr, scenario.Records, values)
		if err != nil {
			return nil, err
		}
		result.IDs = ids
	}

	evaluateExpect(scenario.Expect, result)
	return result, nil
}

// execute seeds a fresh in-memory database and returns the ids selected
// by tr in their string form.
func execute(rt *recordtypes.RecordType, tr *querytree.Translation, records []map[string]any, values map[string]any) ([]string, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	st.SetLogger(h.logger)

	return h.selectIDs(context.Background(), rt, tr, records, values)
}

func (h *Harness) selectIDs(ctx context.Context, rt *recordtypes.RecordType, tr *querytree.Translation, records []map[string]any, values map[string]any) ([]string, error) {
	if err := h.store.CreateSchema(ctx, rt); err != nil {
		return nil, err
	}

	recs := make([]store.Record, len(records))
	for i, r := range records {
		recs[i] = r
	}
	if err := h.store.Insert(ctx, rt, recs...); err != nil {
		return nil, fmt.Errorf("failed to seed records: %w", err)
	}

	ids, err := h.store.Select(ctx, tr, values)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprint(id)
	}
	h.logger.Debug("scenario executed", "record_type", rt.Name, "records", len(records), "matched", len(out))
	return out, nil
}
