// Package naming builds the display names, code paths, and archive-path
// codes attached to every confirmed document (spec.md §4.4).
package naming

import (
	"strings"
	"time"

	"github.com/Jistoria/document-service/pkg/graphmodel"
)

// Node is one vertex on the root-to-leaf entity path. graphstore.Traverse
// returns the ancestors nearest first ([parent, grandparent, ...]); callers
// prepend the start vertex and reverse the list before passing it here.
type Node struct {
	Name        string
	Code        string
	CodeNumeric interface{}
}

// RequiredDocument describes the required-document descriptor build_names
// folds into the leaf combination when a document belongs to one.
type RequiredDocument struct {
	Code string
	Name string
}

// BuildNames implements build_names(leaf_path, required_document?). path
// must be ordered root -> leaf. now is the local wall clock the timestamp
// tag is rendered against.
func BuildNames(path []Node, required *RequiredDocument, now time.Time) *graphmodel.Naming {
	names := make([]string, 0, len(path))
	codes := make([]string, 0, len(path))
	codeNumerics := make([]string, 0, len(path))
	for _, n := range path {
		names = append(names, n.Name)
		codes = append(codes, n.Code)
		codeNumerics = append(codeNumerics, NormalizeNumeric(n.CodeNumeric))
	}

	var leafName string
	if len(path) > 0 {
		leafName = path[len(path)-1].Name
	}

	timestampTag := now.Format("20060102_150405")

	nameCode := combine(codes, leafName, required)
	nameCodeNumeric := combine(codeNumerics, leafName, required)

	naming := &graphmodel.Naming{
		NamePath:        joinSkipEmpty(names, " / "),
		CodePath:        joinSkipEmpty(codes, " / "),
		CodeNumericPath: joinSkipEmpty(codeNumerics, " / "),
		NameCode:        nameCode,
		NameCodeNumeric: nameCodeNumeric,
		DisplayName:     nameCode + " - " + timestampTag,
		TimestampTag:    timestampTag,
		PathNodes:       pathNodeLabels(path),
	}
	if required != nil {
		naming.RequiredDocumentCode = required.Code
	}
	return naming
}

// combine folds the leaf (and parent, if present) code with the required
// document's code when supplied, then appends " - <display name>": the
// leaf's name normally, or the required document's name when one is
// supplied (spec.md §4.4).
func combine(codes []string, leafName string, required *RequiredDocument) string {
	if len(codes) == 0 {
		return ""
	}

	var parts []string
	if len(codes) >= 2 {
		parts = append(parts, codes[len(codes)-2])
	}
	parts = append(parts, codes[len(codes)-1])

	displayName := leafName
	if required != nil {
		parts = append(parts, required.Code)
		displayName = required.Name
	}
	return strings.Join(parts, "-") + " - " + displayName
}

func joinSkipEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func pathNodeLabels(path []Node) []string {
	labels := make([]string, 0, len(path))
	for _, n := range path {
		label := n.Code
		if label == "" {
			label = n.Name
		}
		labels = append(labels, label)
	}
	return labels
}
