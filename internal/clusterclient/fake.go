package clusterclient

import (
	"context"
	"sync"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
)

// TransportError models an HTTP-status-bearing transport failure. HTTP
// 408 is treated as a retriable timeout by the Retry wrapper; other
// status codes are fatal unless the caller's retry attempts are
// exhausted (§4.4).
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string { return e.Message }

// ConnectionError models a connection-level failure (refused, DNS,
// socket) that is always fatal to the task at the executor layer (§4.5g)
// regardless of retry configuration, except within one runner attempt
// when retry-on-timeout is set.
type ConnectionError struct{ Message string }

func (e *ConnectionError) Error() string { return e.Message }

// FakeClient is an in-memory Client used by runner tests. Responses and
// errors are scripted per call-count via Script, letting tests exercise
// deterministic failure-then-success sequences (testable property 5).
type FakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	// Script, keyed by a caller-chosen operation key, returns the
	// response/error for the n-th call (0-indexed) to that key.
	Script map[string]func(call int) (Response, error)

	reqCtxClosed int
}

func NewFakeClient() *FakeClient {
	return &FakeClient{calls: map[string]int{}, Script: map[string]func(int) (Response, error){}}
}

type fakeRequestContext struct{ c *FakeClient }

func (r *fakeRequestContext) Close() { r.c.reqCtxClosed++ }

func (c *FakeClient) NewRequestContext() RequestContext { return &fakeRequestContext{c: c} }

func (c *FakeClient) invoke(key string) (Response, error) {
	c.mu.Lock()
	n := c.calls[key]
	c.calls[key] = n + 1
	script := c.Script[key]
	c.mu.Unlock()
	if script == nil {
		return Response{}, benchmarkerrors.NotFound("no script registered for %q", key)
	}
	return script(n)
}

func (c *FakeClient) Bulk(ctx context.Context, body []byte, params map[string]any) (Response, error) {
	return c.invoke("bulk")
}

func (c *FakeClient) Search(ctx context.Context, index string, body map[string]any, params map[string]any) (Response, error) {
	return c.invoke("search:" + index)
}

func (c *FakeClient) Scroll(ctx context.Context, scrollID string, scroll string) (Response, error) {
	return c.invoke("scroll:" + scrollID)
}

func (c *FakeClient) ClearScroll(ctx context.Context, scrollIDs []string) error {
	_, err := c.invoke("clear_scroll")
	return err
}

func (c *FakeClient) OpenPointInTime(ctx context.Context, index, keepAlive string) (Response, error) {
	return c.invoke("open_pit:" + index)
}
func (c *FakeClient) ClosePointInTime(ctx context.Context, pitID string) (Response, error) {
	return c.invoke("close_pit:" + pitID)
}
func (c *FakeClient) ListPointInTime(ctx context.Context) (Response, error) {
	return c.invoke("list_pit")
}

func (c *FakeClient) TransportPerformRequest(ctx context.Context, method, url string, params map[string]any, body []byte, headers map[string]string) (Response, int, error) {
	resp, err := c.invoke("raw:" + method + ":" + url)
	status := 200
	if te, ok := err.(*TransportError); ok {
		status = te.StatusCode
	}
	return resp, status, err
}

func (c *FakeClient) Indices() IndicesAPI       { return fakeIndices{c} }
func (c *FakeClient) Cluster() ClusterAPI       { return fakeCluster{c} }
func (c *FakeClient) Snapshot() SnapshotAPI     { return fakeSnapshot{c} }
func (c *FakeClient) Tasks() TasksAPI           { return fakeTasks{c} }
func (c *FakeClient) Transform() TransformAPI   { return fakeTransform{c} }
func (c *FakeClient) AsyncSearch() AsyncSearchAPI { return fakeAsyncSearch{c} }

type fakeIndices struct{ c *FakeClient }

func (f fakeIndices) Create(ctx context.Context, index string, body map[string]any) error {
	_, err := f.c.invoke("indices.create:" + index)
	return err
}
func (f fakeIndices) Delete(ctx context.Context, index string) error {
	_, err := f.c.invoke("indices.delete:" + index)
	return err
}
func (f fakeIndices) Exists(ctx context.Context, index string) (bool, error) {
	resp, err := f.c.invoke("indices.exists:" + index)
	if err != nil {
		return false, err
	}
	exists, _ := resp["exists"].(bool)
	return exists, nil
}
func (f fakeIndices) Stats(ctx context.Context, index string) (Response, error) {
	return f.c.invoke("indices.stats:" + index)
}
func (f fakeIndices) Recovery(ctx context.Context, index string) (Response, error) {
	return f.c.invoke("indices.recovery:" + index)
}
func (f fakeIndices) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	_, err := f.c.invoke("indices.put_settings:" + index)
	return err
}
func (f fakeIndices) ForceMerge(ctx context.Context, index string, maxSegments int) error {
	_, err := f.c.invoke("indices.forcemerge:" + index)
	return err
}
func (f fakeIndices) Refresh(ctx context.Context, index string) error {
	_, err := f.c.invoke("indices.refresh:" + index)
	return err
}
func (f fakeIndices) Shrink(ctx context.Context, source, target string, body map[string]any) error {
	_, err := f.c.invoke("indices.shrink:" + source + ":" + target)
	return err
}
func (f fakeIndices) PutTemplate(ctx context.Context, name string, body map[string]any) error {
	_, err := f.c.invoke("indices.put_template:" + name)
	return err
}
func (f fakeIndices) DeleteTemplate(ctx context.Context, name string) error {
	_, err := f.c.invoke("indices.delete_template:" + name)
	return err
}
func (f fakeIndices) ExistsTemplate(ctx context.Context, name string) (bool, error) {
	resp, err := f.c.invoke("indices.exists_template:" + name)
	if err != nil {
		return false, err
	}
	exists, _ := resp["exists"].(bool)
	return exists, nil
}
func (f fakeIndices) CreateDataStream(ctx context.Context, name string) error {
	_, err := f.c.invoke("indices.create_data_stream:" + name)
	return err
}
func (f fakeIndices) DeleteDataStream(ctx context.Context, name string) error {
	_, err := f.c.invoke("indices.delete_data_stream:" + name)
	return err
}
func (f fakeIndices) PutIndexTemplate(ctx context.Context, name string, body map[string]any) error {
	_, err := f.c.invoke("indices.put_index_template:" + name)
	return err
}
func (f fakeIndices) DeleteIndexTemplate(ctx context.Context, name string) error {
	_, err := f.c.invoke("indices.delete_index_template:" + name)
	return err
}
func (f fakeIndices) Get(ctx context.Context, index string) (Response, error) {
	return f.c.invoke("indices.get:" + index)
}

type fakeCluster struct{ c *FakeClient }

func (f fakeCluster) Health(ctx context.Context, index string) (Response, error) {
	return f.c.invoke("cluster.health:" + index)
}
func (f fakeCluster) PutSettings(ctx context.Context, settings map[string]any) error {
	_, err := f.c.invoke("cluster.put_settings")
	return err
}
func (f fakeCluster) PutComponentTemplate(ctx context.Context, name string, body map[string]any) error {
	_, err := f.c.invoke("cluster.put_component_template:" + name)
	return err
}
func (f fakeCluster) DeleteComponentTemplate(ctx context.Context, name string) error {
	_, err := f.c.invoke("cluster.delete_component_template:" + name)
	return err
}

type fakeSnapshot struct{ c *FakeClient }

func (f fakeSnapshot) CreateRepository(ctx context.Context, repo string, body map[string]any) error {
	_, err := f.c.invoke("snapshot.create_repository:" + repo)
	return err
}
func (f fakeSnapshot) DeleteRepository(ctx context.Context, repo string) error {
	_, err := f.c.invoke("snapshot.delete_repository:" + repo)
	return err
}
func (f fakeSnapshot) Create(ctx context.Context, repo, snapshot string, body map[string]any) error {
	_, err := f.c.invoke("snapshot.create:" + repo + ":" + snapshot)
	return err
}
func (f fakeSnapshot) Status(ctx context.Context, repo, snapshot string) (Response, error) {
	return f.c.invoke("snapshot.status:" + repo + ":" + snapshot)
}
func (f fakeSnapshot) Restore(ctx context.Context, repo, snapshot string, body map[string]any) error {
	_, err := f.c.invoke("snapshot.restore:" + repo + ":" + snapshot)
	return err
}

type fakeTasks struct{ c *FakeClient }

func (f fakeTasks) List(ctx context.Context, params map[string]any) (Response, error) {
	return f.c.invoke("tasks.list")
}
func (f fakeTasks) Get(ctx context.Context, taskID string) (Response, error) {
	return f.c.invoke("tasks.get:" + taskID)
}

type fakeTransform struct{ c *FakeClient }

func (f fakeTransform) PutTransform(ctx context.Context, id string, body map[string]any) error {
	_, err := f.c.invoke("transform.put:" + id)
	return err
}
func (f fakeTransform) StartTransform(ctx context.Context, id string) error {
	_, err := f.c.invoke("transform.start:" + id)
	return err
}
func (f fakeTransform) StopTransform(ctx context.Context, id string) error {
	_, err := f.c.invoke("transform.stop:" + id)
	return err
}
func (f fakeTransform) GetTransformStats(ctx context.Context, id string) (Response, error) {
	return f.c.invoke("transform.stats:" + id)
}
func (f fakeTransform) DeleteTransform(ctx context.Context, id string) error {
	_, err := f.c.invoke("transform.delete:" + id)
	return err
}

type fakeAsyncSearch struct{ c *FakeClient }

func (f fakeAsyncSearch) Submit(ctx context.Context, index string, body map[string]any, params map[string]any) (Response, error) {
	return f.c.invoke("async_search.submit:" + index)
}
func (f fakeAsyncSearch) Get(ctx context.Context, id string) (Response, error) {
	return f.c.invoke("async_search.get:" + id)
}
func (f fakeAsyncSearch) Delete(ctx context.Context, id string) error {
	_, err := f.c.invoke("async_search.delete:" + id)
	return err
}
