// Package flagx contains helpers for reading command-line flags and
// environment variables without clashing with flags owned by other packages.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigEnvVar names the environment variable consulted when no -c/-config
// flag is given.
const ConfigEnvVar = "JENGACALC_CONFIG"

// FilterArgs keeps only the allowed flags (and their values) from args.
//
// Both "-f value" and "-f=value" forms are recognised. A value is taken from
// the following argument only when it does not itself start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JsonConfigFlags returns the JSON config path given with -c or -config.
// When neither flag is present the ConfigEnvVar environment variable is used.
// An empty string means no JSON file should be loaded.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	if config == "" {
		config = os.Getenv(ConfigEnvVar)
	}

	return config
}
