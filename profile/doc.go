// Package profile provides optional runtime profiling for quill sessions.
//
// # Build Tag
//
// Profiling support is compiled in only when the binary is built with the
// "pprof" build tag:
//
//	go build -tags pprof ./...
//
// The default build carries none of it: [Config.Start] returns a handle
// whose Stop is a no-op, [Modes] returns an empty list, and the profiling
// flags disappear from the command line. There is no runtime cost for
// builds without the tag.
//
// With the tag enabled, the package drives [github.com/pkg/profile] and
// imports [net/http/pprof], so a program that also starts an HTTP server
// exposes live profiles under /debug/pprof/.
//
// # Modes
//
// The supported modes when built with the pprof tag are:
//
//	allocs     all memory allocations
//	block      blocking on synchronization primitives
//	clock      wall-clock time
//	cpu        CPU time
//	goroutine  goroutine stacks
//	heap       live heap allocations
//	mem        general memory profiling
//	mutex      mutex contention
//	thread     OS thread creation
//	trace      execution trace
//
// [Modes] reports this list at runtime so the command line can validate its
// enum without hard-coding the names twice.
//
// # Configuration
//
// A [Config] is a closure over the three values the profiler needs: the
// mode, the output directory, and whether to suppress the profiler's own
// logging. [New] folds options over an empty configuration, and each
// option derives a new Config from an existing one:
//
//	cfg := profile.New(
//	    profile.WithMode("cpu"),
//	    profile.WithPath(dir),
//	    profile.WithQuiet(true),
//	)
//
//	defer cfg.Start().Stop()
//
// Profiles are written to the configured directory named after the mode,
// for example cpu.pprof or heap.pprof. The profiler runs for the life of
// the session; quitting the shell flushes and closes the profile.
//
// # Command Line
//
// When built with the pprof tag, quill grows a profiling flag group:
//
//	quill --pprof-mode cpu
//	quill --pprof-mode heap --pprof-dir ./profiles
//
// The default output directory is the pprof subdirectory of the quill
// cache directory ($XDG_CACHE_HOME/quill/pprof on Linux). The command
// line always requests quiet mode so the profiler's messages do not
// interleave with the interactive display.
//
// # Analysis
//
// Inspect a written profile with the standard tooling:
//
//	go tool pprof ./quill cpu.pprof
//	go tool pprof -http=: heap.pprof
//
// The first form opens the interactive console (top, list, web); the
// second serves flame graphs and source annotations in a browser. Compare
// two runs with -base=old.pprof.
//
// CPU and trace modes carry measurable overhead. Block and mutex modes
// depend on the sampling rates set through [runtime.SetBlockProfileRate]
// and [runtime.SetMutexProfileFraction].
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
