package shell

import (
	"os"
	"os/user"
	"strings"

	"mvdan.cc/sh/v3/expand"
)

// osEnviron answers template variable lookups from the live process
// environment.
type osEnviron struct{}

// Get implements the environment collaborator for template renders.
func (osEnviron) Get(name string) (string, bool) {
	return os.LookupEnv(name)
}

// processEnv adapts the live process environment to the embedded
// interpreter. Reading through the process on every lookup keeps
// variables exported by builtins visible to later expansions and to
// template renders alike.
type processEnv struct{}

// Get implements expand.Environ.
func (processEnv) Get(name string) expand.Variable {
	val, ok := os.LookupEnv(name)
	if !ok {
		return expand.Variable{}
	}

	return expand.Variable{Exported: true, Kind: expand.String, Str: val}
}

// Each implements expand.Environ.
func (processEnv) Each(visit func(name string, vr expand.Variable) bool) {
	for _, pair := range os.Environ() {
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if !visit(name, expand.Variable{Exported: true, Kind: expand.String, Str: val}) {
			return
		}
	}
}

// hostname returns the short host name, empty when unavailable.
func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	return name
}

// currentUser returns the calling user's account record, nil when
// the lookup fails.
func currentUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

// username returns the login name of the calling user, falling back
// to the USER environment variable.
func username() string {
	if u := currentUser(); u != nil && u.Username != "" {
		return u.Username
	}

	return os.Getenv("USER")
}

// homeDir returns the calling user's home directory, empty when it
// cannot be determined.
func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}

	if u := currentUser(); u != nil {
		return u.HomeDir
	}

	return ""
}

// workDir returns the current working directory, empty when it
// cannot be determined.
func workDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	return dir
}

// promptMark returns the traditional prompt terminator: "#" for the
// superuser and "%" for everyone else.
func promptMark() string {
	if os.Getuid() == 0 {
		return "#"
	}

	return "%"
}
