package hypothesis

import (
	"fmt"

	"traxiv/internal/domain"
)

const authority = "hypothes.is"

// NewPermissions builds the permission descriptor for one run: the group
// may read the annotation, only the posting account may change or remove
// it. Constructed once and shared read-only across every post.
func NewPermissions(user, groupID string) domain.Permissions {
	acct := fmt.Sprintf("acct:%s@%s", user, authority)
	return domain.Permissions{
		Read:   []string{"group:" + groupID},
		Update: []string{acct},
		Delete: []string{acct},
		Admin:  []string{acct},
	}
}
