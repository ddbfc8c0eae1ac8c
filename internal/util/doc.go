// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared string and file helpers for cordial.
//
// String helpers measure and cut text by display columns, not bytes, so
// usernames and channel names in any script truncate cleanly in the
// sidebar and status bar:
//
//	label := util.TruncateWidth(channel.Name, width)
//	pad := width - util.StringWidth(label)
//
// AtomicWriteFile backs everything cordial persists outside SQLite (the
// encrypted token, session summaries): a crash mid-write leaves the old
// file intact instead of a torn one.
package util
