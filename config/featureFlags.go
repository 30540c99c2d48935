package config

import (
	"os"
	"strings"
)

// TransactionalReconcile wraps a full save (child reconciliation + approach
// total recompute) for one parent in a single DB transaction. The historical
// behavior leaves partial writes in place when a reconciliation step fails,
// so this is off unless explicitly enabled.
//
// Set via env:
// - TRANSACTIONAL_RECONCILE=true
func TransactionalReconcile() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("TRANSACTIONAL_RECONCILE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ParentEditLocking serializes saves per parent record through a redis lock.
// Without it, two concurrent edits of the same parent race freely and the
// loser's children can be pruned by the winner's reconciliation pass.
//
// Set via env:
// - PARENT_EDIT_LOCKING=true
func ParentEditLocking() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PARENT_EDIT_LOCKING")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
