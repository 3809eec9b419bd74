package runner

// registerBuiltins installs every built-in operation type named in the
// §4.4 table. Assertions are globally disabled by default; callers may
// re-Register with a non-nil assertionsEnabled predicate if a workload
// configuration turns them on.
func registerBuiltins(r *Registry) {
	noAssertions := func() bool { return false }

	r.Register("bulk", BulkRunner{}, noAssertions)
	r.Register("search", NewSearchRunner("search"), noAssertions)
	r.Register("paginated-search", NewSearchRunner("paginated-search"), noAssertions)
	r.Register("scroll-search", NewSearchRunner("scroll-search"), noAssertions)
	r.Register("vector-search", VectorSearchRunner{}, noAssertions)
	r.Register("force-merge", &ForceMergeRunner{}, noAssertions)

	r.Register("create-index", &indexBatchOp{opType: "create-index", kind: "index", delete: false}, noAssertions)
	r.Register("delete-index", &indexBatchOp{opType: "delete-index", kind: "index", delete: true}, noAssertions)
	r.Register("create-data-stream", &indexBatchOp{opType: "create-data-stream", kind: "data-stream", delete: false}, noAssertions)
	r.Register("delete-data-stream", &indexBatchOp{opType: "delete-data-stream", kind: "data-stream", delete: true}, noAssertions)
	r.Register("create-index-template", &indexBatchOp{opType: "create-index-template", kind: "index-template", delete: false}, noAssertions)
	r.Register("delete-index-template", &indexBatchOp{opType: "delete-index-template", kind: "index-template", delete: true}, noAssertions)
	r.Register("create-component-template", &indexBatchOp{opType: "create-component-template", kind: "component-template", delete: false}, noAssertions)
	r.Register("delete-component-template", &indexBatchOp{opType: "delete-component-template", kind: "component-template", delete: true}, noAssertions)
	r.Register("create-composable-template", &indexBatchOp{opType: "create-composable-template", kind: "composable-template", delete: false}, noAssertions)
	r.Register("delete-composable-template", &indexBatchOp{opType: "delete-composable-template", kind: "composable-template", delete: true}, noAssertions)

	r.Register("cluster-health", ClusterHealthRunner{}, noAssertions)
	r.Register("raw-request", RawRequestRunner{}, noAssertions)
	r.Register("sleep", SleepRunner{}, noAssertions)

	r.Register("create-snapshot", CreateSnapshotRunner{}, noAssertions)
	r.Register("restore-snapshot", RestoreSnapshotRunner{}, noAssertions)
	r.Register("wait-for-snapshot", &WaitForSnapshotRunner{}, noAssertions)
	r.Register("wait-for-recovery", &WaitForRecoveryRunner{}, noAssertions)

	r.Register("create-transform", CreateTransformRunner{}, noAssertions)
	r.Register("start-transform", StartTransformRunner{}, noAssertions)
	r.Register("wait-for-transform", &WaitForTransformRunner{}, noAssertions)
	r.Register("delete-transform", DeleteTransformRunner{}, noAssertions)

	r.Register("submit-async-search", SubmitAsyncSearchRunner{}, noAssertions)
	// get-async-search is retried until success, per §4.4.
	r.RegisterWithRetry("get-async-search", GetAsyncSearchRunner{}, noAssertions, RetryConfig{RetryUntilSuccess: true})
	r.Register("delete-async-search", DeleteAsyncSearchRunner{}, noAssertions)

	r.Register("create-point-in-time", CreatePointInTimeRunner{}, noAssertions)
	r.Register("close-point-in-time", ClosePointInTimeRunner{}, noAssertions)
	r.Register("list-point-in-time", ListPointInTimeRunner{}, noAssertions)

	r.Register("composite", NewCompositeRunner(r), noAssertions)
}
