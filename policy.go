package studygroups

import (
	"context"

	"github.com/goliatone/go-errors"
)

// GroupRelation is the caller's relationship to a group. Exactly one
// relation holds for a given (user, group) pair.
type GroupRelation string

const (
	// RelationOwner has full control over the group and its join requests
	RelationOwner GroupRelation = "owner"
	// RelationMember may view the group and leave it
	RelationMember GroupRelation = "member"
	// RelationPending has an open join request awaiting the owner
	RelationPending GroupRelation = "pending"
	// RelationStranger has no standing and may submit a join request
	RelationStranger GroupRelation = "stranger"
)

// CanManageRequests reports whether the relation may accept or reject
// join requests.
func (r GroupRelation) CanManageRequests() bool {
	return r == RelationOwner
}

// CanLeave reports whether the member-leave action is available. The owner
// holds a membership row but is exempt from leaving.
func (r GroupRelation) CanLeave() bool {
	return r == RelationMember
}

// CanRequestJoin reports whether a new join request may be submitted.
func (r GroupRelation) CanRequestJoin() bool {
	return r == RelationStranger
}

// CanCancelRequest reports whether the caller may cancel their own
// pending request.
func (r GroupRelation) CanCancelRequest() bool {
	return r == RelationPending
}

// AuthorizationPolicy computes a caller's relation to a group from the
// membership and join-request stores.
type AuthorizationPolicy interface {
	Authorize(ctx context.Context, user *User, group *StudyGroup) (GroupRelation, error)
}

type policy struct {
	members  Memberships
	requests JoinRequests
	logger   Logger
}

// NewAuthorizationPolicy returns the default policy implementation.
func NewAuthorizationPolicy(members Memberships, requests JoinRequests, logger Logger) AuthorizationPolicy {
	if logger == nil {
		logger = defLogger{}
	}
	return &policy{
		members:  members,
		requests: requests,
		logger:   logger,
	}
}

// Authorize resolves the relation in a fixed order: owner, then member,
// then pending requester, then stranger. The data model's uniqueness
// invariants make the states mutually exclusive under the join-request
// transition rules, so the first match wins.
func (p *policy) Authorize(ctx context.Context, user *User, group *StudyGroup) (GroupRelation, error) {
	if user == nil || group == nil {
		return "", errors.New("user and group are required", errors.CategoryBadInput)
	}

	if group.OwnerID == user.ID {
		return RelationOwner, nil
	}

	isMember, err := p.members.Exists(ctx, user.ID, group.ID)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "membership lookup failed")
	}
	if isMember {
		return RelationMember, nil
	}

	request, err := p.requests.GetByUserAndGroup(ctx, user.ID, group.ID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return RelationStranger, nil
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "join request lookup failed")
	}

	if request.IsPending() {
		return RelationPending, nil
	}

	// A rejected row behaves as stranger, it is self clearing on the next
	// request-join. An accepted row without a membership cannot occur
	// under the accept transition's atomicity.
	return RelationStranger, nil
}
