// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns resolved messages into styled transcript lines.
//
// A Transcript takes a newest-first message batch (the order the API
// returns history in) together with resolved author colors and produces
// oldest-first display lines ready for a viewport. Each message opens with
// a header line of dim timestamp and the author's name in their role
// color; wrapped and multi-line content continues on four-space-indented
// lines with no repeated header.
//
// # Determinism
//
// Rendering is pure. The renderer pins its own color profile instead of
// detecting the terminal, so the same messages, colors, and Options always
// produce byte-identical output. Plain mode drops to the ASCII profile:
// no escape sequences at all, same line structure.
//
// # Markdown
//
// With Markdown enabled, inline **bold**, *italic*, `code`, and ~~strike~~
// spans are styled with their delimiters consumed; delimiters without a
// closing partner stay literal. Fenced code blocks are syntax-highlighted
// with chroma and emitted without word-wrapping, since breaking a line
// would corrupt both the code and its escape sequences.
//
// # Usage
//
//	tr := render.NewTranscript(render.Options{
//	    Width:      80,
//	    TimeLayout: cfg.Timestamps.Format,
//	    Location:   cfg.Location(),
//	    Markdown:   cfg.Markdown,
//	})
//	lines := tr.Render(messages, colors)
//	viewport.SetContent(render.Join(lines))
package render
