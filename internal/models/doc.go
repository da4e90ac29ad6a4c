// Package models defines the core domain models for Taskboard.
//
// # Models
//
//   - User: a registered account, keyed by email
//   - Task: a single to-do item owned by one user
//
// # Design Principles
//
// 1. **Flat records**: tasks reference their owner by email value, not by pointer
// 2. **Wire-compatible**: JSON tags match the HTTP API and the on-disk document
// 3. **No secrets on the wire**: password material never leaves the storage layer
package models
