package cli

import (
	"github.com/mmr-tortoise/extpack/internal/model"
)

// ParseArgs converts the raw argument list into Options.
//
// All recognized flags are pure switches and none takes a value. A help
// switch anywhere in the list wins over everything else, including unknown
// tokens, so "extpack --bogus -h" prints usage and exits 0. Otherwise the
// first unrecognized token is returned as a configuration error.
func ParseArgs(args []string) (model.Options, error) {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return model.Options{ShowHelp: true}, nil
		}
	}

	var opts model.Options
	for _, arg := range args {
		switch arg {
		case "--install", "-i":
			opts.Install = true
		default:
			return model.Options{}, model.UnknownOptionError(arg)
		}
	}
	return opts, nil
}
