package alias

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// FormatVersion is the store format written by this build. Files from a
// newer major version are refused instead of being rewritten in the older
// layout.
const FormatVersion = "1.0.0"

var (
	// ErrUnsupportedFormat is returned when a store file declares a format
	// version this build cannot read.
	ErrUnsupportedFormat = errors.New("unsupported store format")

	// ErrUnencodable is returned when the aliases cannot be written in a form
	// that reads back unchanged.
	ErrUnencodable = errors.New("aliases do not survive a store round trip")
)

// document is the on-disk layout of aliases.yaml.
type document struct {
	Version string            `yaml:"version"`
	Aliases map[string]string `yaml:"aliases"`
}

// decode parses and validates store bytes. An empty document is an empty
// store.
func decode(data []byte) (map[string]string, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]string{}, nil
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := checkFormat(doc.Version); err != nil {
		return nil, err
	}
	if doc.Aliases == nil {
		doc.Aliases = map[string]string{}
	}
	return doc.Aliases, nil
}

// encode renders aliases as a store document with names in sorted order.
// Multi-line prompts are written as literal blocks where yaml can read them
// back; the output is decoded before it is returned and, if any prompt did
// not survive, re-rendered with every prompt double-quoted.
func encode(aliases map[string]string) ([]byte, error) {
	for _, quoteAll := range []bool{false, true} {
		data, err := render(aliases, quoteAll)
		if err != nil {
			return nil, err
		}
		back, err := decode(data)
		if err == nil && maps.Equal(back, aliases) {
			return data, nil
		}
	}
	return nil, ErrUnencodable
}

func render(aliases map[string]string, quoteAll bool) ([]byte, error) {
	entries := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range sortedNames(aliases) {
		entries.Content = append(entries.Content, keyNode(name, quoteAll), promptNode(aliases[name], quoteAll))
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		strNode("version", 0), strNode(FormatVersion, 0),
		strNode("aliases", 0), entries,
	}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// keyNode quotes "<<", which yaml would otherwise read back as a merge key.
func keyNode(name string, quoteAll bool) *yaml.Node {
	if quoteAll || name == "<<" {
		return strNode(name, yaml.DoubleQuotedStyle)
	}
	return strNode(name, 0)
}

// promptNode picks a literal block for multi-line prompts unless the first
// line starts with whitespace, which a block cannot carry.
func promptNode(prompt string, quoteAll bool) *yaml.Node {
	switch {
	case quoteAll:
		return strNode(prompt, yaml.DoubleQuotedStyle)
	case strings.Contains(prompt, "\n") && !startsWithSpace(prompt):
		return strNode(prompt, yaml.LiteralStyle)
	default:
		return strNode(prompt, 0)
	}
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\r\n", rune(s[0]))
}

// strNode leaves invalid UTF-8 untagged so the encoder falls back to !!binary.
func strNode(value string, style yaml.Style) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: style}
	if utf8.ValidString(value) {
		n.Tag = "!!str"
	} else {
		n.Style = 0
	}
	return n
}

// checkFormat accepts a missing version (files written before versioning)
// and any version whose major matches FormatVersion's or is older.
func checkFormat(version string) error {
	if version == "" {
		return nil
	}
	fv, err := parseSemver(version)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrUnsupportedFormat, version, err)
	}
	current := semver.MustParse(FormatVersion)
	if fv.Major() > current.Major() {
		return fmt.Errorf("%w: file version %s is newer than supported %s", ErrUnsupportedFormat, fv, current)
	}
	return nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
