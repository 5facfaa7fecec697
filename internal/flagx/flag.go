// Package flagx lets several components share os.Args, each parsing only the
// flags it owns with its own flag.FlagSet.
package flagx

import (
	"flag"
	"strings"
)

// Filter names the flags a component owns. Valued flags take a value either
// as "-f=v" or as the following argument; Bool flags never consume the next
// argument. Names may be written with one or two leading dashes, and both
// spellings match on the command line.
type Filter struct {
	Valued []string
	Bool   []string
}

func flagName(arg string) string {
	return strings.TrimLeft(arg, "-")
}

// Apply returns the arguments belonging to f, in their original order. The
// result is never nil.
func (f Filter) Apply(args []string) []string {
	valued := make(map[string]struct{}, len(f.Valued))
	for _, n := range f.Valued {
		valued[flagName(n)] = struct{}{}
	}
	boolean := make(map[string]struct{}, len(f.Bool))
	for _, n := range f.Bool {
		boolean[flagName(n)] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			continue
		}

		name, _, hasValue := strings.Cut(flagName(arg), "=")
		if _, ok := boolean[name]; ok {
			out = append(out, arg)
			continue
		}
		if _, ok := valued[name]; !ok {
			continue
		}

		out = append(out, arg)
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// FilterArgs keeps the valued flags in allowed together with their values.
func FilterArgs(args []string, allowed []string) []string {
	return Filter{Valued: allowed}.Apply(args)
}

// ConfigPath returns the value of -c or -config, or "" when neither is set.
// The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
