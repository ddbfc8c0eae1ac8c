// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns resolved messages into styled transcript lines.
package render

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/disgoorg/snowflake/v2"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/cordial-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT RENDERER
// =============================================================================

// continuationIndent prefixes every wrapped line after a message's header.
const continuationIndent = "    "

// minContentWidth is the narrowest column content will wrap to, however
// small the terminal gets.
const minContentWidth = 10

// Line is one display row of the transcript.
type Line struct {
	// MessageID identifies the message this row belongs to
	MessageID snowflake.ID
	// Text is the styled row, ready for the viewport
	Text string
	// Header marks the first row of a message
	Header bool
}

// Options configures a Transcript renderer.
type Options struct {
	// Width is the target column count (default 80)
	Width int
	// TimeLayout is a Go reference-time layout (default "3:04PM")
	TimeLayout string
	// Location for timestamp display (default the system zone)
	Location *time.Location
	// Timestamps toggles the time column (NoTimestamps inverts so the
	// zero value keeps them on)
	NoTimestamps bool
	// Markdown enables inline styling and code highlighting
	Markdown bool
	// ShowAttachments renders a placeholder row per attachment
	ShowAttachments bool
	// Plain strips all styling: no ANSI codes in the output
	Plain bool
	// Profile overrides the color profile (default true color)
	Profile termenv.Profile
}

// Transcript renders batches of messages into ordered display lines.
// Rendering is pure: the same messages, colors, and options always produce
// byte-identical output.
type Transcript struct {
	opts   Options
	styles styleSet
}

// styleSet holds the precomputed lipgloss styles for one renderer.
type styleSet struct {
	time   lipgloss.Style
	author lipgloss.Style
	dim    lipgloss.Style
	plain  lipgloss.Style
	bold   lipgloss.Style
	italic lipgloss.Style
	code   lipgloss.Style
	strike lipgloss.Style
}

// NewTranscript creates a renderer, filling option defaults.
func NewTranscript(opts Options) *Transcript {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = "3:04PM"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Profile == termenv.Profile(0) {
		opts.Profile = termenv.TrueColor
	}
	if opts.Plain {
		opts.Profile = termenv.Ascii
	}

	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(opts.Profile)

	return &Transcript{
		opts: opts,
		styles: styleSet{
			time:   r.NewStyle().Faint(true),
			author: r.NewStyle().Bold(true),
			dim:    r.NewStyle().Faint(true),
			plain:  r.NewStyle(),
			bold:   r.NewStyle().Bold(true),
			italic: r.NewStyle().Italic(true),
			code:   r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
			strike: r.NewStyle().Strikethrough(true),
		},
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// Render turns a newest-first message batch and its resolved colors into
// oldest-first display lines. Authors missing from colors render with the
// default color; rendering never fails on a message.
func (t *Transcript) Render(messages []model.Message, colors map[snowflake.ID]model.Color) []Line {
	lines := make([]Line, 0, len(messages)*2)

	// The API hands history newest-first; the transcript reads top-down
	for i := len(messages) - 1; i >= 0; i-- {
		lines = append(lines, t.renderMessage(messages[i], colors)...)
	}

	return lines
}

// Join concatenates lines for a viewport.
func Join(lines []Line) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line.Text)
	}
	return sb.String()
}

// renderMessage produces the header line and any continuation lines for
// one message.
func (t *Transcript) renderMessage(msg model.Message, colors map[snowflake.ID]model.Color) []Line {
	authorColor, ok := colors[msg.Author.ID]
	if !ok {
		authorColor = model.DefaultColor
	}

	prefix, prefixWidth := t.headerPrefix(msg, authorColor)
	content := t.contentLines(msg, t.opts.Width-prefixWidth, t.opts.Width-len(continuationIndent))

	if len(content) == 0 {
		// Empty content: exactly one header line, no content suffix
		return []Line{{MessageID: msg.ID, Text: prefix, Header: true}}
	}

	lines := make([]Line, 0, len(content))
	lines = append(lines, Line{
		MessageID: msg.ID,
		Text:      prefix + content[0],
		Header:    true,
	})
	for _, c := range content[1:] {
		lines = append(lines, Line{
			MessageID: msg.ID,
			Text:      continuationIndent + c,
		})
	}

	return lines
}

// headerPrefix builds the styled "time author: " lead-in and reports its
// visible width.
func (t *Transcript) headerPrefix(msg model.Message, authorColor model.Color) (string, int) {
	name := msg.Author.DisplayName()

	var sb strings.Builder
	width := 0

	if !t.opts.NoTimestamps {
		stamp := msg.Timestamp.In(t.opts.Location).Format(t.opts.TimeLayout)
		sb.WriteString(t.styles.time.Render(stamp))
		sb.WriteByte(' ')
		width += runewidth.StringWidth(stamp) + 1
	}

	sb.WriteString(t.styles.author.Foreground(lipgloss.Color(string(authorColor))).Render(name))
	sb.WriteString(": ")
	width += runewidth.StringWidth(name) + 2

	return sb.String(), width
}

// contentLines renders a message body into styled display lines: markdown
// segmentation, width-aware wrapping, attachment placeholders, and the
// edited marker. firstWidth is the room left on the header line,
// contWidth the room on continuation lines.
func (t *Transcript) contentLines(msg model.Message, firstWidth, contWidth int) []string {
	if firstWidth < minContentWidth {
		firstWidth = minContentWidth
	}
	if contWidth < minContentWidth {
		contWidth = minContentWidth
	}

	var out []string
	content := strings.TrimRight(msg.Content, "\n")

	if content != "" {
		if t.opts.Markdown {
			for _, b := range splitBlocks(content) {
				if b.fenced {
					out = append(out, t.renderCodeBlock(b)...)
					continue
				}
				for _, logical := range strings.Split(b.text, "\n") {
					width := contWidth
					if len(out) == 0 {
						width = firstWidth
					}
					out = append(out, t.wrapStyled(logical, width, contWidth)...)
				}
			}
		} else {
			// Markdown off: fences and delimiters are ordinary text
			for _, logical := range strings.Split(content, "\n") {
				width := contWidth
				if len(out) == 0 {
					width = firstWidth
				}
				out = append(out, t.wrapStyled(logical, width, contWidth)...)
			}
		}

		if msg.Edited && len(out) > 0 {
			out[len(out)-1] += " " + t.styles.dim.Render("(edited)")
		}
	}

	if t.opts.ShowAttachments {
		for _, a := range msg.Attachments {
			name := a.Filename
			if name == "" {
				name = "file"
			}
			out = append(out, t.styles.dim.Render("[attachment: "+name+"]"))
		}
	}

	return out
}

// wrapStyled segments one logical line (markdown spans when enabled, a
// single plain span otherwise) and wraps the spans into display lines.
// Styling is applied per span fragment, so a span split by the wrap stays
// styled on both lines.
func (t *Transcript) wrapStyled(logical string, firstWidth, contWidth int) []string {
	var spans []span
	if t.opts.Markdown {
		spans = parseInline(logical)
	} else {
		spans = []span{{text: logical}}
	}

	return t.wrapSpans(spans, firstWidth, contWidth)
}

// =============================================================================
// SPAN WRAPPING
// =============================================================================

// wrapSpans flows styled spans into lines: greedy word wrap measured with
// runewidth, hard-breaking words wider than a whole line. A space at a
// wrap point is replaced by the break itself, never carried onto either
// line.
func (t *Transcript) wrapSpans(spans []span, firstWidth, contWidth int) []string {
	var lines []string
	var cur strings.Builder
	curWidth := 0
	limit := firstWidth

	pending := false // a separator space not yet committed to the line
	var pendingStyle lipgloss.Style

	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curWidth = 0
		limit = contWidth
		pending = false
	}

	for _, sp := range spans {
		style := t.spanStyle(sp.kind)

		for _, word := range splitWords(sp.text) {
			if word == " " {
				if pending {
					// Consecutive spaces: the earlier one is real content
					if curWidth+1 > limit {
						flush()
					} else {
						cur.WriteString(pendingStyle.Render(" "))
						curWidth++
					}
				}
				pending = true
				pendingStyle = style
				continue
			}

			w := runewidth.StringWidth(word)
			need := w
			if pending {
				need++
			}

			if curWidth > 0 && curWidth+need > limit {
				flush()
			} else if pending {
				cur.WriteString(pendingStyle.Render(" "))
				curWidth++
				pending = false
			}

			// A word wider than a whole line hard-breaks by rune
			for curWidth+w > limit {
				head, tail := splitAt(word, limit-curWidth)
				if head == "" {
					break
				}
				cur.WriteString(style.Render(head))
				curWidth += runewidth.StringWidth(head)
				flush()
				word = tail
				w = runewidth.StringWidth(word)
			}

			if word != "" {
				cur.WriteString(style.Render(word))
				curWidth += w
			}
		}
	}

	if curWidth > 0 || len(lines) == 0 {
		lines = append(lines, cur.String())
	}

	return lines
}

// spanStyle maps a span kind to its style.
func (t *Transcript) spanStyle(kind spanKind) lipgloss.Style {
	switch kind {
	case spanBold:
		return t.styles.bold
	case spanItalic:
		return t.styles.italic
	case spanCode:
		return t.styles.code
	case spanStrike:
		return t.styles.strike
	default:
		return t.styles.plain
	}
}

// splitWords cuts s into words and single-space separators so the wrapper
// can drop a separator at a line break.
func splitWords(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == ' ' {
			if start < i {
				out = append(out, s[start:i])
			}
			out = append(out, " ")
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// splitAt cuts a word at the given display width.
func splitAt(word string, width int) (head, tail string) {
	if width <= 0 {
		return "", word
	}

	w := 0
	for i, r := range word {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			return word[:i], word[i:]
		}
		w += rw
	}
	return word, ""
}
