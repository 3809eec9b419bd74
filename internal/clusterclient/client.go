// Package clusterclient names the external cluster-client contract
// consumed by the Runner layer (§6). A real wire implementation is out
// of scope (spec Non-goals); FakeClient backs tests and the runner
// layer's own unit tests.
package clusterclient

import "context"

// RequestContext provides per-request timing hooks; the benchmark must
// call Client.NewRequestContext to obtain one before timing a request.
type RequestContext interface {
	Close()
}

// Response is the generic decoded-JSON response shape returned by every
// operation group below.
type Response map[string]any

// Client is the long-lived handle to one (or more) OpenSearch-compatible
// clusters used by the runner layer.
type Client interface {
	NewRequestContext() RequestContext

	Bulk(ctx context.Context, body []byte, params map[string]any) (Response, error)

	Indices() IndicesAPI
	Cluster() ClusterAPI
	Snapshot() SnapshotAPI
	Tasks() TasksAPI
	Transform() TransformAPI
	AsyncSearch() AsyncSearchAPI

	OpenPointInTime(ctx context.Context, index string, keepAlive string) (Response, error)
	ClosePointInTime(ctx context.Context, pitID string) (Response, error)
	ListPointInTime(ctx context.Context) (Response, error)

	Search(ctx context.Context, index string, body map[string]any, params map[string]any) (Response, error)
	Scroll(ctx context.Context, scrollID string, scroll string) (Response, error)
	ClearScroll(ctx context.Context, scrollIDs []string) error

	TransportPerformRequest(ctx context.Context, method, url string, params map[string]any, body []byte, headers map[string]string) (Response, int, error)
}

type IndicesAPI interface {
	Create(ctx context.Context, index string, body map[string]any) error
	Delete(ctx context.Context, index string) error
	Exists(ctx context.Context, index string) (bool, error)
	Stats(ctx context.Context, index string) (Response, error)
	Recovery(ctx context.Context, index string) (Response, error)
	PutSettings(ctx context.Context, index string, settings map[string]any) error
	ForceMerge(ctx context.Context, index string, maxSegments int) error
	Refresh(ctx context.Context, index string) error
	Shrink(ctx context.Context, source, target string, body map[string]any) error
	PutTemplate(ctx context.Context, name string, body map[string]any) error
	DeleteTemplate(ctx context.Context, name string) error
	ExistsTemplate(ctx context.Context, name string) (bool, error)
	CreateDataStream(ctx context.Context, name string) error
	DeleteDataStream(ctx context.Context, name string) error
	PutIndexTemplate(ctx context.Context, name string, body map[string]any) error
	DeleteIndexTemplate(ctx context.Context, name string) error
	Get(ctx context.Context, index string) (Response, error)
}

type ClusterAPI interface {
	Health(ctx context.Context, index string) (Response, error)
	PutSettings(ctx context.Context, settings map[string]any) error
	PutComponentTemplate(ctx context.Context, name string, body map[string]any) error
	DeleteComponentTemplate(ctx context.Context, name string) error
}

type SnapshotAPI interface {
	CreateRepository(ctx context.Context, repo string, body map[string]any) error
	DeleteRepository(ctx context.Context, repo string) error
	Create(ctx context.Context, repo, snapshot string, body map[string]any) error
	Status(ctx context.Context, repo, snapshot string) (Response, error)
	Restore(ctx context.Context, repo, snapshot string, body map[string]any) error
}

type TasksAPI interface {
	List(ctx context.Context, params map[string]any) (Response, error)
	Get(ctx context.Context, taskID string) (Response, error)
}

type TransformAPI interface {
	PutTransform(ctx context.Context, id string, body map[string]any) error
	StartTransform(ctx context.Context, id string) error
	StopTransform(ctx context.Context, id string) error
	GetTransformStats(ctx context.Context, id string) (Response, error)
	DeleteTransform(ctx context.Context, id string) error
}

type AsyncSearchAPI interface {
	Submit(ctx context.Context, index string, body map[string]any, params map[string]any) (Response, error)
	Get(ctx context.Context, id string) (Response, error)
	Delete(ctx context.Context, id string) error
}
