package cluster

// NeedsReclustering reports whether label's shape looks oddly-shaped
// enough to warrant a targeted re-run. cmd/slash's recluster path calls
// this after merging and splitting to decide, per resulting cluster,
// whether to keep the recomputed label or revert its members to their
// original seed label. The source this spec was distilled from left the
// predicate itself open (a `TODO: Figure out how to triage clusters and
// decide which are oddly-shaped and need reclustering`, always returning
// true); spec §9 explicitly permits preserving that behavior rather than
// inventing a heuristic, so this stays the documented always-true stub.
// A real predicate would compare DensitySplitter's per-member density
// variance for label against the rest of the partition — DensityMeter
// already computes the inputs it would need.
func NeedsReclustering(part *Partition, label string) bool {
	return true
}
