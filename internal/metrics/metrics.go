// Package metrics provides application-level counters using stdlib expvar.
// Counters are automatically exported on the /debug/vars HTTP endpoint
// when expvar is imported by the serving binary.
package metrics

import "expvar"

// Resolution counters.
var (
	DocumentsResolved = expvar.NewInt("rocktag_documents_resolved_total")
	EmptyDocuments    = expvar.NewInt("rocktag_documents_empty_total")
	DirectMatches     = expvar.NewInt("rocktag_direct_matches_total")
	RecoveredMatches  = expvar.NewInt("rocktag_recovered_matches_total")
	MemberMatches     = expvar.NewInt("rocktag_member_matches_total")
)

// Build and run counters.
var (
	DictionaryBuilds = expvar.NewInt("rocktag_dictionary_builds_total")
	MalformedRows    = expvar.NewInt("rocktag_malformed_rows_total")
	RunsCompleted    = expvar.NewInt("rocktag_runs_completed_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
