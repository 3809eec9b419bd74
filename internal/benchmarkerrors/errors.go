// Package benchmarkerrors defines the process-wide error taxonomy used
// across the load-generation engine.
package benchmarkerrors

import "fmt"

// Kind distinguishes the taxonomy entries named by the benchmark harness.
type Kind string

const (
	KindBenchmark           Kind = "benchmark-error"
	KindLaunch              Kind = "launch-error"
	KindSystemSetup         Kind = "system-setup-error"
	KindAssertion           Kind = "assertion-error"
	KindTaskAssertion       Kind = "task-assertion-error"
	KindConfig              Kind = "config-error"
	KindData                Kind = "data-error"
	KindSupply              Kind = "supply-error"
	KindBuild               Kind = "build-error"
	KindInvalidSyntax       Kind = "invalid-syntax"
	KindInvalidName         Kind = "invalid-name"
	KindWorkloadConfig      Kind = "workload-config-error"
	KindNotFound            Kind = "not-found"
)

// Error is the base error type; every taxonomy entry below embeds it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func new_(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Benchmark constructs the base "Cannot run task [name]: <message>" fatal
// executor error described in §4.5.
func Benchmark(format string, args ...any) *Error { return new_(KindBenchmark, format, args...) }

// BenchmarkWrap wraps an underlying cause as a BenchmarkError.
func BenchmarkWrap(cause error, format string, args ...any) *Error {
	return wrap(KindBenchmark, cause, format, args...)
}

func Launch(format string, args ...any) *Error         { return new_(KindLaunch, format, args...) }
func SystemSetup(format string, args ...any) *Error     { return new_(KindSystemSetup, format, args...) }
func Assertion(format string, args ...any) *Error       { return new_(KindAssertion, format, args...) }
func TaskAssertion(format string, args ...any) *Error   { return new_(KindTaskAssertion, format, args...) }
func Config(format string, args ...any) *Error          { return new_(KindConfig, format, args...) }
func Data(format string, args ...any) *Error            { return new_(KindData, format, args...) }
func Supply(format string, args ...any) *Error          { return new_(KindSupply, format, args...) }
func Build(format string, args ...any) *Error           { return new_(KindBuild, format, args...) }
func InvalidSyntax(format string, args ...any) *Error    { return new_(KindInvalidSyntax, format, args...) }
func InvalidName(format string, args ...any) *Error      { return new_(KindInvalidName, format, args...) }
func WorkloadConfig(format string, args ...any) *Error   { return new_(KindWorkloadConfig, format, args...) }
func NotFound(format string, args ...any) *Error         { return new_(KindNotFound, format, args...) }

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		break
	}
	return false
}
