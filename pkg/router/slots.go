package router

import (
	"hash/fnv"
	"strings"
)

const slotMarker = `data-slot="`

// extractSlots returns the inner content of every element carrying a
// data-slot attribute, split into text-only and HTML slots. Slots nested
// inside another slot are part of the outer slot's content.
func extractSlots(html string) (textSlots, htmlSlots map[string]string) {
	textSlots = make(map[string]string)
	htmlSlots = make(map[string]string)

	n := len(html)
	pos := 0

	for pos < n {
		idx := strings.Index(html[pos:], slotMarker)
		if idx == -1 {
			break
		}

		idStart := pos + idx + len(slotMarker)
		idLen := strings.IndexByte(html[idStart:], '"')
		if idLen == -1 {
			break
		}
		slotID := html[idStart : idStart+idLen]

		tagStart := pos + idx
		for tagStart > 0 && html[tagStart] != '<' {
			tagStart--
		}

		tagEnd := tagStart + 1
		for tagEnd < n && !isTagNameEnd(html[tagEnd]) {
			tagEnd++
		}
		tagName := html[tagStart+1 : tagEnd]

		closeAngle := strings.IndexByte(html[idStart+idLen:], '>')
		if closeAngle == -1 {
			break
		}
		contentStart := idStart + idLen + closeAngle + 1

		contentEnd, next := matchClose(html, tagName, contentStart)
		if contentEnd == -1 {
			pos = contentStart
			continue
		}

		content := strings.TrimSpace(html[contentStart:contentEnd])
		if strings.ContainsAny(content, "<>") {
			htmlSlots[slotID] = content
		} else {
			textSlots[slotID] = content
		}

		pos = next
	}

	return textSlots, htmlSlots
}

// matchClose finds the close tag balancing an open tag whose content starts
// at from. It returns the content end and the position after the close tag.
func matchClose(html, tagName string, from int) (end, next int) {
	openTag := "<" + tagName
	closeTag := "</" + tagName
	n := len(html)

	depth := 1
	pos := from
	for pos < n {
		nextClose := strings.Index(html[pos:], closeTag)
		if nextClose == -1 {
			return -1, n
		}
		nextClose += pos

		nextOpen := strings.Index(html[pos:nextClose], openTag)
		if nextOpen != -1 {
			nextOpen += pos
			after := nextOpen + len(openTag)
			if after < n && isTagNameEnd(html[after]) {
				depth++
			}
			pos = after
			continue
		}

		depth--
		if depth == 0 {
			return nextClose, nextClose + len(closeTag)
		}
		pos = nextClose + len(closeTag)
	}
	return -1, n
}

func isTagNameEnd(c byte) bool {
	switch c {
	case ' ', '>', '/', '\t', '\n', '\r':
		return true
	}
	return false
}

// hashSlot computes the FNV-64a hash of slot content.
func hashSlot(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

// hashSlots hashes every slot of a render.
func hashSlots(textSlots, htmlSlots map[string]string) map[string]uint64 {
	hashes := make(map[string]uint64, len(textSlots)+len(htmlSlots))
	for id, content := range textSlots {
		hashes[id] = hashSlot(content)
	}
	for id, content := range htmlSlots {
		hashes[id] = hashSlot(content)
	}
	return hashes
}
