package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
)

// Throughput is a parsed target-throughput or target-interval value.
type Throughput struct {
	Value float64
	Unit  string // "ops/s", "docs/s", "MB/s", ...
}

// ParseTargetThroughput parses strings like "5 MB/s", "100 docs/s", or a
// bare number (unit defaults to ops/s).
func ParseTargetThroughput(raw string) (Throughput, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Throughput{}, benchmarkerrors.Config("empty target-throughput")
	}
	parts := strings.Fields(raw)
	switch len(parts) {
	case 1:
		// either "100" or "100ops/s" glued together
		if v, err := strconv.ParseFloat(parts[0], 64); err == nil {
			return Throughput{Value: v, Unit: "ops/s"}, nil
		}
		return splitGlued(parts[0])
	case 2:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Throughput{}, benchmarkerrors.Config("invalid target-throughput value %q", raw)
		}
		return Throughput{Value: v, Unit: parts[1]}, nil
	default:
		return Throughput{}, benchmarkerrors.Config("invalid target-throughput %q", raw)
	}
}

func splitGlued(tok string) (Throughput, error) {
	for i := len(tok) - 1; i >= 0; i-- {
		if tok[i] >= '0' && tok[i] <= '9' {
			v, err := strconv.ParseFloat(tok[:i+1], 64)
			if err != nil {
				return Throughput{}, benchmarkerrors.Config("invalid target-throughput %q", tok)
			}
			return Throughput{Value: v, Unit: tok[i+1:]}, nil
		}
	}
	return Throughput{}, benchmarkerrors.Config("invalid target-throughput %q", tok)
}

// ResolveThroughputAndInterval enforces that at most one of
// target-throughput/target-interval is given, and returns the
// effective target throughput (ops/s-equivalent) for scheduling.
func ResolveThroughputAndInterval(targetThroughput, targetInterval string) (float64, error) {
	if targetThroughput != "" && targetInterval != "" {
		return 0, benchmarkerrors.Config("target-throughput and target-interval are mutually exclusive")
	}
	if targetThroughput != "" {
		t, err := ParseTargetThroughput(targetThroughput)
		if err != nil {
			return 0, err
		}
		return t.Value, nil
	}
	if targetInterval != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(targetInterval), 64)
		if err != nil || v <= 0 {
			return 0, benchmarkerrors.Config("invalid target-interval %q", targetInterval)
		}
		return 1.0 / v, nil
	}
	return 0, nil
}

func (t Throughput) String() string { return fmt.Sprintf("%g %s", t.Value, t.Unit) }
