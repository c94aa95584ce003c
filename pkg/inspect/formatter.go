package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ossia/ossia-sc/pkg/value"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes type, access and unit information
	ShowMetadata bool

	// ShowHidden includes hidden nodes in trees
	ShowHidden bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		ShowHidden:   false,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a value for display, with the unit appended.
func (f *Formatter) FormatValue(v value.Value, unit value.Unit) string {
	var text string
	switch v.Type() {
	case value.TypeNone:
		return "null"
	case value.TypeImpulse:
		return "impulse"
	case value.TypeString:
		s, _ := v.AsString()
		return strconv.Quote(s)
	case value.TypeChar:
		c, _ := v.AsChar()
		return strconv.QuoteRune(rune(c))
	case value.TypeList:
		l, _ := v.AsList()
		parts := make([]string, len(l))
		for i, e := range l {
			parts[i] = f.FormatValue(e, value.Unit{})
		}
		text = "[" + strings.Join(parts, ", ") + "]"
	default:
		text = v.String()
	}

	if unit.IsZero() {
		return text
	}
	return text + " " + unit.String()
}

// FormatAccess formats an access mode for display.
func FormatAccess(a value.AccessMode) string {
	switch a {
	case value.AccessGet:
		return "get"
	case value.AccessSet:
		return "set"
	case value.AccessBi:
		return "bi"
	default:
		return fmt.Sprintf("access(%d)", a)
	}
}

// FormatBounding formats a bounding mode for display.
func FormatBounding(b value.BoundingMode) string {
	return strings.ToLower(b.String())
}

// FormatDomain formats a domain as "[min, max]" followed by the
// allowed values, or "none".
func (f *Formatter) FormatDomain(d value.Domain) string {
	if d.Empty() {
		return "none"
	}

	var parts []string
	if d.Min().Valid() || d.Max().Valid() {
		parts = append(parts, fmt.Sprintf("[%s, %s]",
			f.FormatValue(d.Min(), value.Unit{}), f.FormatValue(d.Max(), value.Unit{})))
	}
	if vals := d.Values(); len(vals) > 0 {
		items := make([]string, len(vals))
		for i, v := range vals {
			items[i] = f.FormatValue(v, value.Unit{})
		}
		parts = append(parts, "{"+strings.Join(items, ", ")+"}")
	}
	return strings.Join(parts, " ")
}

// FormatFlags formats the set node flags, or "" when none is set.
func FormatFlags(info *NodeInfo) string {
	var flags []string
	if info.Disabled {
		flags = append(flags, "disabled")
	}
	if info.Muted {
		flags = append(flags, "muted")
	}
	if info.Hidden {
		flags = append(flags, "hidden")
	}
	if info.Zombie {
		flags = append(flags, "zombie")
	}
	if len(flags) == 0 {
		return ""
	}
	return "[" + strings.Join(flags, " ") + "]"
}

// FormatNode formats one node line without its children.
func (f *Formatter) FormatNode(info *NodeInfo) string {
	var sb strings.Builder
	sb.WriteString(info.Name)

	if p := info.Parameter; p != nil {
		sb.WriteString(": ")
		sb.WriteString(f.FormatValue(p.Value, p.Unit))
		if f.ShowMetadata {
			sb.WriteString(fmt.Sprintf(" (%s, %s", p.Type, FormatAccess(p.Access)))
			if !p.Domain.Empty() {
				sb.WriteString(", ")
				sb.WriteString(f.FormatDomain(p.Domain))
				if p.Bounding != value.BoundFree {
					sb.WriteString(" ")
					sb.WriteString(FormatBounding(p.Bounding))
				}
			}
			sb.WriteString(")")
		}
	}

	if flags := FormatFlags(info); flags != "" {
		sb.WriteString(" ")
		sb.WriteString(flags)
	}
	return sb.String()
}

// FormatTree formats a node and its subtree, one node per line.
func (f *Formatter) FormatTree(info *NodeInfo) string {
	var sb strings.Builder
	f.writeTree(&sb, info, 0)
	return sb.String()
}

func (f *Formatter) writeTree(sb *strings.Builder, info *NodeInfo, depth int) {
	if info.Hidden && !f.ShowHidden && depth > 0 {
		return
	}
	sb.WriteString(f.Indent(depth, f.FormatNode(info)))
	sb.WriteString("\n")
	for i := range info.Children {
		f.writeTree(sb, &info.Children[i], depth+1)
	}
}

// AttributeRow represents a formatted attribute for display.
type AttributeRow struct {
	Name  string
	Value string
}

// FormatAttributeTable formats a list of attributes as a table.
func (f *Formatter) FormatAttributeTable(rows []AttributeRow) string {
	if len(rows) == 0 {
		return "  (no attributes)"
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row.Name))
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %-*s  %s\n", width, row.Name, row.Value))
	}
	return sb.String()
}
