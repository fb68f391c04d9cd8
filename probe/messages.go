package probe

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Code identifies a probe diagnostic.
type Code string

const (
	// CodeNoTestImage means the daemon answered but has no image with the sentinel tag prefix.
	CodeNoTestImage Code = "11700"
	// CodeDaemonStatus means the daemon answered with a non-success status.
	CodeDaemonStatus Code = "11701"
)

//go:embed messages.yaml
var messagesYAML []byte

var catalog = mustLoadCatalog(messagesYAML)

func mustLoadCatalog(data []byte) map[Code]string {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		panic(fmt.Sprintf("probe: malformed message catalog: %s", err))
	}
	ret := make(map[Code]string, len(raw))
	for k, v := range raw {
		ret[Code(k)] = v
	}
	return ret
}

// Message formats the catalog entry for a code with its parameters.
func Message(code Code, args ...interface{}) string {
	format, ok := catalog[code]
	if !ok {
		return fmt.Sprintf("unknown diagnostic %s %v", code, args)
	}
	return fmt.Sprintf(format, args...)
}
