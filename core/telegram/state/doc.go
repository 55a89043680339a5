// Package state provides the in-memory FSM/session manager backing
// multi-step dialogs. Sessions are volatile: they live until completed,
// explicitly cleared, or the process restarts.
package state
