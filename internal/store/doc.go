// Package store owns the bridge state file: the single-token file that
// imecued overwrites on every mode transition and that imecue, tmux and
// status bars read.
package store
