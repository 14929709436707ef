package importer

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// MessageExt is the extension picked up when a directory is given.
const MessageExt = ".eml"

// ExpandPaths turns user arguments into the ordered list of files to
// import. A glob expands to its matches in lexical order. A directory
// expands to the .eml files directly inside it. Anything else is kept as
// is, so a missing file still reaches the pipeline and is counted as
// failed.
func ExpandPaths(fs afero.Fs, args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := afero.Glob(fs, arg)
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", arg, err)
			}
			slices.Sort(matches)
			out = append(out, matches...)
			continue
		}

		isDir, err := afero.IsDir(fs, arg)
		if err != nil || !isDir {
			out = append(out, arg)
			continue
		}

		entries, err := afero.ReadDir(fs, arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), MessageExt) {
				continue
			}
			out = append(out, filepath.Join(arg, e.Name()))
		}
	}
	return out, nil
}
