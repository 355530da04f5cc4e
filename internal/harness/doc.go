// Package harness provides scenario-driven conformance testing for filter
// catalogs.
//
// A scenario names a CUE catalog, a request (models plus a flat value map,
// or pre-partitioned scoped requests), optional in-memory records, and a
// list of assertions. The harness compiles the catalog, builds the
// constraints, evaluates each model's filter program against its records,
// and checks the assertions against the outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: reference
//	description: "Two models, three filters"
//	catalog: ../catalogs/reference
//	models: [Model1, Model2]
//	values:
//	  dateFrom: "2025-01-01"
//	  vvip: 1
//	  bt_status: [Planning]
//	records:
//	  Model1:
//	    - {date_from: "2025-03-01", vvip: 1}
//	    - {date_from: "2024-12-01", vvip: 1}
//	assertions:
//	  - type: group_order
//	    models: [Model1, Model2]
//	  - type: formatted
//	    model: Model1
//	    text: '(date_from > "2025-01-01" AND vvip = 1)'
//	  - type: matches
//	    model: Model1
//	    rows: [0]
//
// The catalog path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - group_order: groups appear for exactly these models, in this order
//   - condition: a model's group holds a condition for filter_key, with the
//     given field, operator and value when those are set
//   - formatted: a model's combined tree renders as text
//   - error_code: the build failed with code (and model / filter_key when set)
//   - no_leakage: every group and combined tree references only its own model
//   - matches: the record indices a model's program selects
//
// A build failure is only acceptable when an error_code assertion expects it.
//
// # Deterministic Testing
//
// Runs are pure: the catalog is compiled fresh per scenario and the trace id
// comes from scenario.trace_id (default "test-trace-default"), so golden
// snapshots are stable across runs.
package harness
