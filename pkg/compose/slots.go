package compose

import (
	"regexp"
	"strings"
)

// DefaultSlot receives fragment content that precedes any slot anchor.
const DefaultSlot = ""

// slotAnchor matches a slot marker line such as {{< slot "imports" >}}.
// Everything after the marker, up to the next marker, belongs to that slot.
var slotAnchor = regexp.MustCompile(`\{\{<\s*slot\s+"([^"]+)"\s*>\}\}`)

// section is one slot's worth of content from a single fragment.
type section struct {
	slot    string
	content string
}

// splitSlots cuts fragment content into slot sections. Content before the
// first anchor lands in DefaultSlot; anchor markers themselves are not
// part of any section.
func splitSlots(content string) []section {
	matches := slotAnchor.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return []section{{slot: DefaultSlot, content: content}}
	}

	var sections []section
	if lead := content[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		sections = append(sections, section{slot: DefaultSlot, content: lead})
	}
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, section{
			slot:    content[m[2]:m[3]],
			content: content[m[1]:end],
		})
	}
	return sections
}

// SlotSystem accumulates fragment contributions into named slots and
// renders them back out in a stable order. Slots appear in the output in
// the order they are first registered; within a slot, contributions keep
// registration order. Register fragments in merge order (ascending
// priority, then root-first chain position) so leaf customizations land
// last.
//
// The zero value is not usable - use NewSlotSystem.
type SlotSystem struct {
	order   []string
	content map[string][]string
}

// NewSlotSystem creates an empty slot registry.
func NewSlotSystem() *SlotSystem {
	return &SlotSystem{content: make(map[string][]string)}
}

// Register splits fragment content on its slot anchors and appends each
// section to its slot. Content with no anchors goes to DefaultSlot whole.
func (s *SlotSystem) Register(content string) {
	for _, sec := range splitSlots(content) {
		trimmed := strings.Trim(sec.content, "\n")
		if trimmed == "" {
			continue
		}
		if _, seen := s.content[sec.slot]; !seen {
			s.order = append(s.order, sec.slot)
		}
		s.content[sec.slot] = append(s.content[sec.slot], trimmed)
	}
}

// Slots returns the registered slot names in first-registration order.
func (s *SlotSystem) Slots() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Contributions returns the registered sections for one slot, in
// registration order.
func (s *SlotSystem) Contributions(slot string) []string {
	out := make([]string, len(s.content[slot]))
	copy(out, s.content[slot])
	return out
}

// Render concatenates every slot's contributions, slots in
// first-registration order, one blank line between sections, with a
// trailing newline.
func (s *SlotSystem) Render() string {
	var parts []string
	for _, slot := range s.order {
		parts = append(parts, s.content[slot]...)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
