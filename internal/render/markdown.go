// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns resolved messages into styled transcript lines.
package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"
)

// =============================================================================
// INLINE SPANS
// =============================================================================

// spanKind classifies an inline markdown span.
type spanKind int

const (
	spanPlain spanKind = iota
	spanBold
	spanItalic
	spanCode
	spanStrike
)

// span is a run of text with one inline style.
type span struct {
	text string
	kind spanKind
}

// parseInline splits one logical line into styled spans: **bold**,
// *italic* or _italic_, `code`, ~~strike~~. Delimiters without a closing
// partner stay literal; code span content is never re-parsed. Underscores
// open a span only at a word boundary so snake_case survives.
func parseInline(s string) []span {
	var out []span
	var plain strings.Builder

	flushPlain := func() {
		if plain.Len() > 0 {
			out = append(out, span{text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(s) {
		kind, delim := openingDelim(s, i)
		if kind == spanPlain {
			plain.WriteByte(s[i])
			i++
			continue
		}

		start := i + len(delim)
		rel := strings.Index(s[start:], delim)
		if rel <= 0 {
			// Unclosed or empty span: the delimiter is literal text
			plain.WriteString(delim)
			i = start
			continue
		}

		flushPlain()
		out = append(out, span{text: s[start : start+rel], kind: kind})
		i = start + rel + len(delim)
	}

	flushPlain()
	return out
}

// openingDelim reports the span kind opening at position i, if any.
// Two-character delimiters are checked before their one-character
// prefixes.
func openingDelim(s string, i int) (spanKind, string) {
	rest := s[i:]

	switch {
	case strings.HasPrefix(rest, "**"):
		return spanBold, "**"
	case strings.HasPrefix(rest, "~~"):
		return spanStrike, "~~"
	case rest[0] == '`':
		return spanCode, "`"
	case rest[0] == '*':
		return spanItalic, "*"
	case rest[0] == '_' && (i == 0 || s[i-1] == ' '):
		return spanItalic, "_"
	}

	return spanPlain, ""
}

// =============================================================================
// FENCED CODE BLOCKS
// =============================================================================

// block is a run of message content: ordinary text or one fenced code
// block with its info-string language.
type block struct {
	text   string
	lang   string
	fenced bool
}

// splitBlocks cuts content into alternating text and fenced-code blocks.
// An unterminated fence runs to the end of the message. Fence lines
// themselves are not content.
func splitBlocks(content string) []block {
	var blocks []block
	var cur []string
	inFence := false
	lang := ""

	flushText := func() {
		if len(cur) > 0 {
			blocks = append(blocks, block{text: strings.Join(cur, "\n")})
			cur = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			if inFence {
				blocks = append(blocks, block{text: strings.Join(cur, "\n"), lang: lang, fenced: true})
				cur = nil
				inFence = false
			} else {
				flushText()
				lang = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inFence = true
			}
			continue
		}
		cur = append(cur, line)
	}

	if inFence {
		blocks = append(blocks, block{text: strings.Join(cur, "\n"), lang: lang, fenced: true})
	} else {
		flushText()
	}

	return blocks
}

// chromaStyle is the fixed highlight palette; a constant keeps rendering
// deterministic.
const chromaStyle = "monokai"

// renderCodeBlock highlights one fenced block. Code lines are emitted as
// produced, never word-wrapped: breaking tokens would corrupt both the
// code and its escape sequences, and the viewport clips overflow.
func (t *Transcript) renderCodeBlock(b block) []string {
	if b.text == "" {
		return nil
	}

	formatter := t.chromaFormatter()
	if formatter == "" {
		return strings.Split(b.text, "\n")
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, b.text, b.lang, formatter, chromaStyle); err != nil {
		// Unknown language or formatter trouble: verbatim beats nothing
		return strings.Split(b.text, "\n")
	}

	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

// chromaFormatter maps the renderer's color profile to a chroma terminal
// formatter; empty means highlighting is off.
func (t *Transcript) chromaFormatter() string {
	if t.opts.Plain {
		return ""
	}

	switch t.opts.Profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return ""
	}
}
