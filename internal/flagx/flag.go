// Package flagx contains helpers for cooperating flag sets: components parse
// only the flags they own, so several config layers can share os.Args.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		// "-f value": keep the flag and, when present, its value.
		if strings.HasPrefix(arg, "-") {
			if _, ok := allowed[arg]; ok {
				filtered = append(filtered, arg)
				if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
					filtered = append(filtered, args[i+1])
					i++
				}
			}
			continue
		}
	}

	return filtered
}

// JsonConfigFlags scans os.Args for a -c/-config flag and returns its value,
// or "" when no JSON config file was requested. Unknown flags are ignored.
func JsonConfigFlags() string {
	args := FilterArgs(os.Args[1:], []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("jsonconfig", flag.ContinueOnError)
	var short, long string
	fs.StringVar(&short, "c", "", "path to JSON config file")
	fs.StringVar(&long, "config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return ""
	}
	if long != "" {
		return long
	}
	return short
}
