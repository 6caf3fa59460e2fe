package taskmgr

import (
	"fmt"

	"github.com/postfiat-dev/pft-go/pkg/tasks"
)

// StatusLine formats a one-line overview of the relationship with the
// node for wallet front pages and CLI output.
func StatusLine(s *tasks.Snapshot, node string) string {
	sum := s.AccountSummary(node)
	user := sum.GenesisUser
	if user == "" {
		user = "(no genesis)"
	}
	return fmt.Sprintf("user %s | node %s | %d tasks | %d outstanding | %d pending verification | %d rewarded",
		user, node, len(s.Tasks),
		len(s.Outstanding()), len(s.PendingVerifications()), len(s.Rewards()))
}
