// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core data types for the advisor chat client.
//
// The central types are Entry (a single immutable chat log entry, tagged
// with a Role and a Kind) and Log (an append-only ordered sequence of
// entries seeded with the advisor greeting).
//
// Role tells the two conversational sides apart; Kind tells conversational
// content apart from system-level notices such as the network failure
// fallback. The two axes are deliberately independent so rendering and
// transport code never infer one from the other.
package model
