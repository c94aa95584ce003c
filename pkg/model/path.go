package model

import (
	"strings"
)

// reserved lists characters not allowed in node names. They are replaced
// with underscores by SanitizeName.
const reserved = " #*,/?[]{}:"

// SanitizeName replaces characters that cannot appear in an OSC address
// component.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(reserved, r) || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}

// splitPath splits an OSC address into its components, ignoring empty ones.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// FindNode resolves a path relative to root. An empty path or "/" returns
// root. Returns nil if any component is missing. Components are sanitized
// like FindOrCreateNode does.
func FindNode(root *Node, path string) *Node {
	n := root
	for _, part := range splitPath(path) {
		n = n.FindChild(SanitizeName(part))
		if n == nil {
			return nil
		}
	}
	return n
}

// ValidatePath returns ErrInvalidName if a component of path is blank
// once sanitized.
func ValidatePath(path string) error {
	for _, part := range splitPath(path) {
		if SanitizeName(part) == "" {
			return ErrInvalidName
		}
	}
	return nil
}

// FindOrCreateNode resolves a path relative to parent, creating missing
// intermediate nodes. Path components are sanitized. An invalid path
// fails before any node is created.
func FindOrCreateNode(parent *Node, path string) (*Node, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	n := parent
	for _, part := range splitPath(path) {
		name := SanitizeName(part)
		if child := n.FindChild(name); child != nil {
			n = child
			continue
		}

		child, err := n.CreateChild(name)
		if err == ErrNameTaken {
			// Created concurrently.
			child = n.FindChild(name)
		} else if err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}
