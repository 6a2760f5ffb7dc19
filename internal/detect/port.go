package detect

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Default ports reported when no configuration file yields a match.
const (
	DefaultFrontendPort uint16 = 5190
	DefaultBackendPort  uint16 = 8000
)

// frontendConfigs are probed in order inside a frontend service directory.
var frontendConfigs = []string{"vite.config.ts", "vite.config.js"}

// Port returns the configured dev-server port for the service directory,
// falling back to the service-type default. Configuration formats vary
// (JSON-ish, key=value, JS export objects), so instead of parsing each
// format this scans for a line mentioning "port" and takes the first
// number on it that falls in the registered/dynamic range.
func Port(dir, service string) uint16 {
	if service == ServiceFrontend {
		for _, name := range frontendConfigs {
			if p, ok := scanFile(filepath.Join(dir, name)); ok {
				return p
			}
		}
		return DefaultFrontendPort
	}
	if p, ok := scanFile(filepath.Join(dir, ".env")); ok {
		return p
	}
	return DefaultBackendPort
}

// scanFile extracts a port from one configuration file. Missing or
// unreadable files simply yield no match.
func scanFile(path string) (uint16, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if p, ok := extractPort(sc.Text()); ok {
			return p, true
		}
	}
	return 0, false
}

// extractPort applies the line heuristic: a line containing the token
// "port" (either case variant) is tokenized on non-digit characters and
// the first token parsing to an integer in [1024, 65535] wins. A line with
// several numbers (e.g. a comment) can match the wrong one; that is an
// accepted limitation of the heuristic.
func extractPort(line string) (uint16, bool) {
	if !strings.Contains(line, "port") && !strings.Contains(line, "PORT") {
		return 0, false
	}
	for _, tok := range strings.FieldsFunc(line, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if n >= 1024 && n <= 65535 {
			return uint16(n), true
		}
	}
	return 0, false
}
