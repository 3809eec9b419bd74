package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/runner/compctx"
)

// SearchRunner handles the search / paginated-search / scroll-search
// row of §4.4. Mode is chosen by params: "pages">0 drives paginated
// search_after (optionally with a point-in-time id stored in the
// composite context), a non-empty params["_scroll_id"] injected by the
// caller fetches the next page of that scroll, and the plain default is
// a single-page search.
type SearchRunner struct {
	opType string
}

func NewSearchRunner(opType string) *SearchRunner { return &SearchRunner{opType: opType} }

func (s *SearchRunner) OpType() string { return s.opType }

func (s *SearchRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)
	body, _ := params["body"].(map[string]any)

	if scrollID, ok := params["_scroll_id"].(string); ok && scrollID != "" {
		return scrollPage(ctx, client, scrollID)
	}

	pages, _ := params["pages"].(int)
	if pages > 0 {
		return paginatedPage(ctx, client, index, body, params)
	}

	resp, err := client.Search(ctx, index, body, params)
	if err != nil {
		return Result{}, err
	}
	return searchResultFromResponse(resp), nil
}

func searchResultFromResponse(resp clusterclient.Response) Result {
	meta := map[string]any{}
	var hits float64
	if h, ok := resp["hits"].(map[string]any); ok {
		if tot, ok := h["total"].(map[string]any); ok {
			hits, _ = toFloat(tot["value"])
			meta["hits_relation"], _ = tot["relation"].(string)
		}
	}
	timedOut, _ := resp["timed_out"].(bool)
	took, _ := toFloat(resp["took"])
	meta["hits"] = hits
	meta["timed_out"] = timedOut
	meta["took"] = took
	return Result{Weight: 1, Unit: "ops", Success: !timedOut, Meta: meta}
}

// scrollPage fetches the next scroll page and, per §4.4 "scroll-search
// ... clear-scroll on exit, best-effort", calls ClearScrollBestEffort
// itself and marks the result completed when the final page (empty
// hits) is observed.
func scrollPage(ctx context.Context, client clusterclient.Client, scrollID string) (Result, error) {
	resp, err := client.Scroll(ctx, scrollID, "1m")
	if err != nil {
		return Result{}, err
	}
	res := searchResultFromResponse(resp)
	hits, _ := res.Meta["hits"].(float64)
	if hits == 0 {
		ClearScrollBestEffort(ctx, client, []string{scrollID})
		res.Completed = true
	}
	return res, nil
}

// ClearScrollBestEffort mirrors the Python runner's finally-block
// clear_scroll: it always attempts cleanup and swallows the error.
func ClearScrollBestEffort(ctx context.Context, client clusterclient.Client, scrollIDs []string) {
	_ = client.ClearScroll(ctx, scrollIDs)
}

// paginatedPage drives search_after with an optional point-in-time id
// threaded through the composite context between pages.
func paginatedPage(ctx context.Context, client clusterclient.Client, index string, body map[string]any, params map[string]any) (Result, error) {
	usePIT, _ := params["with-point-in-time-from"].(string)
	if usePIT != "" && compctx.InScope(ctx) {
		if pitID, err := compctx.Get(ctx, "pit_id"); err == nil {
			if body == nil {
				body = map[string]any{}
			}
			body["pit"] = map[string]any{"id": pitID}
		}
	}
	resp, err := client.Search(ctx, index, body, params)
	if err != nil {
		return Result{}, err
	}
	res := searchResultFromResponse(resp)
	if newPit, ok := resp["pit_id"].(string); ok && usePIT != "" && compctx.InScope(ctx) {
		_ = compctx.Put(ctx, "pit_id", newPit)
	}
	hits, _ := res.Meta["hits"].(float64)
	res.Completed = hits == 0
	return res, nil
}
