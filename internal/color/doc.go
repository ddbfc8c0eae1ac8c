// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package color resolves author display colors from role membership.
//
// A user's display color in a guild is the color of their
// highest-positioned role that has one set; position ties break to the
// smallest role ID so resolution is deterministic. Direct messages and
// users without colored roles get the default accent color.
//
// Resolution goes through the fetch coordinator, so members and role
// lists cached in the entity store cost zero network calls. ResolveBatch
// fans out over the distinct authors of a message page with bounded
// concurrency and joins results by user ID; a failed resolution degrades
// that one user to the default color.
package color
