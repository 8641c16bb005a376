package airutil

import "github.com/drone/envsubst"

// ExpandEnv substitutes ${VAR} references in paths passed on the
// command line. Unknown variables expand to the empty string.
func ExpandEnv(s string) string {
	val, _ := envsubst.EvalEnv(s)
	return val
}
