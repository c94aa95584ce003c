package inspect

import (
	"sort"
	"strings"
)

// Node attributes.
const (
	AttrName        = "name"
	AttrDescription = "description"
	AttrTags        = "tags"
	AttrHidden      = "hidden"
	AttrDisabled    = "disabled"
	AttrMuted       = "muted"
	AttrZombie      = "zombie"
)

// Parameter attributes.
const (
	AttrValue            = "value"
	AttrType             = "type"
	AttrAccess           = "access"
	AttrDomain           = "domain"
	AttrBounding         = "bounding"
	AttrUnit             = "unit"
	AttrPriority         = "priority"
	AttrCritical         = "critical"
	AttrRepetitionFilter = "repetitionFilter"
)

// attributeNames maps lowercase spellings to canonical attribute names.
// OSCQuery attribute keys are accepted as aliases.
var attributeNames = map[string]string{
	"name":             AttrName,
	"description":      AttrDescription,
	"tags":             AttrTags,
	"hidden":           AttrHidden,
	"disabled":         AttrDisabled,
	"muted":            AttrMuted,
	"zombie":           AttrZombie,
	"value":            AttrValue,
	"type":             AttrType,
	"access":           AttrAccess,
	"accessmode":       AttrAccess,
	"domain":           AttrDomain,
	"range":            AttrDomain,
	"bounding":         AttrBounding,
	"boundingmode":     AttrBounding,
	"clipmode":         AttrBounding,
	"unit":             AttrUnit,
	"priority":         AttrPriority,
	"critical":         AttrCritical,
	"repetitionfilter": AttrRepetitionFilter,
	"repetition":       AttrRepetitionFilter,
}

// parameterAttributes only exist on nodes that carry a parameter.
var parameterAttributes = map[string]bool{
	AttrValue:            true,
	AttrType:             true,
	AttrAccess:           true,
	AttrDomain:           true,
	AttrBounding:         true,
	AttrUnit:             true,
	AttrPriority:         true,
	AttrCritical:         true,
	AttrRepetitionFilter: true,
}

// ResolveAttributeName resolves an attribute name (case-insensitive).
func ResolveAttributeName(name string) (string, bool) {
	attr, ok := attributeNames[strings.ToLower(strings.TrimSpace(name))]
	return attr, ok
}

// IsParameterAttribute reports whether attr needs a parameter.
func IsParameterAttribute(attr string) bool {
	return parameterAttributes[attr]
}

// AttributeNames returns the canonical attribute names, sorted.
func AttributeNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, attr := range attributeNames {
		if !seen[attr] {
			seen[attr] = true
			out = append(out, attr)
		}
	}
	sort.Strings(out)
	return out
}
