package studygroups

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// JoinRequestEvent names the transitions of the join request lifecycle.
type JoinRequestEvent string

const (
	EventRequestJoin JoinRequestEvent = "request-join"
	EventCancel      JoinRequestEvent = "cancel"
	EventAccept      JoinRequestEvent = "accept"
	EventReject      JoinRequestEvent = "reject"
)

// JoinRequestStateMachine governs the membership request lifecycle:
//
//	NONE -> PENDING -> {ACCEPTED, REJECTED}
//
// ACCEPTED is terminal and creates the membership in the same transaction.
// REJECTED is terminal but self clearing: the next request-join deletes the
// old row and creates a fresh PENDING one, also transactionally.
type JoinRequestStateMachine interface {
	RequestJoin(ctx context.Context, actor *User, groupID uuid.UUID) (*JoinRequest, error)
	Cancel(ctx context.Context, actor *User, groupID uuid.UUID) error
	Accept(ctx context.Context, actor *User, requestID uuid.UUID) (*JoinRequest, error)
	Reject(ctx context.Context, actor *User, requestID uuid.UUID) (*JoinRequest, error)
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*joinRequestStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *joinRequestStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *joinRequestStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *joinRequestStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewJoinRequestStateMachine returns the default implementation backed by
// the provided repository manager.
func NewJoinRequestStateMachine(repo RepositoryManager, opts ...StateMachineOption) JoinRequestStateMachine {
	sm := &joinRequestStateMachine{
		repo:         repo,
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type joinRequestStateMachine struct {
	repo         RepositoryManager
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// RequestJoin moves NONE -> PENDING. Guard: the actor must not already be
// a member. A leftover REJECTED row is deleted in the same transaction
// that inserts the new PENDING row, so at most one row per pair is ever
// observable. Concurrent duplicates race on the store's unique constraint;
// the loser surfaces ErrAlreadyRequested.
func (sm *joinRequestStateMachine) RequestJoin(ctx context.Context, actor *User, groupID uuid.UUID) (*JoinRequest, error) {
	if actor == nil {
		return nil, goerrors.New("actor is required", goerrors.CategoryBadInput)
	}

	group, err := sm.repo.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	isMember, err := sm.repo.Memberships().Exists(ctx, actor.ID, group.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "membership lookup failed")
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	var stale *JoinRequest
	existing, err := sm.repo.JoinRequests().GetByUserAndGroup(ctx, actor.ID, group.ID)
	if err != nil && !goerrors.Is(err, ErrRequestNotFound) {
		return nil, err
	}

	if existing != nil {
		switch existing.Status {
		case JoinRequestPending:
			return nil, ErrAlreadyRequested
		case JoinRequestRejected:
			// self clearing: drop the old row before re-entering PENDING
			stale = existing
		default:
			return nil, ErrAlreadyProcessed
		}
	}

	var request *JoinRequest
	err = sm.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if stale != nil {
			if err := sm.repo.JoinRequests().DeleteTx(ctx, tx, stale.ID); err != nil {
				return err
			}
		}

		request, err = sm.repo.JoinRequests().CreateTx(ctx, tx, actor.ID, group.ID)
		return err
	})

	if err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventJoinRequested,
		Actor:      actorRef(actor),
		UserID:     actor.ID.String(),
		GroupID:    group.ID.String(),
		ToStatus:   JoinRequestPending,
	})

	return request, nil
}

// Cancel moves PENDING -> NONE. Guard: only the requester may cancel their
// own row, and only while it is still pending.
func (sm *joinRequestStateMachine) Cancel(ctx context.Context, actor *User, groupID uuid.UUID) error {
	if actor == nil {
		return goerrors.New("actor is required", goerrors.CategoryBadInput)
	}

	request, err := sm.repo.JoinRequests().GetByUserAndGroup(ctx, actor.ID, groupID)
	if err != nil {
		return err
	}

	if request.UserID != actor.ID {
		return ErrNotRequester
	}

	if !request.IsPending() {
		return ErrAlreadyProcessed
	}

	err = sm.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return sm.repo.JoinRequests().DeleteTx(ctx, tx, request.ID)
	})
	if err != nil {
		return err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventJoinCancelled,
		Actor:      actorRef(actor),
		UserID:     actor.ID.String(),
		GroupID:    groupID.String(),
		FromStatus: JoinRequestPending,
	})

	return nil
}

// Accept moves PENDING -> ACCEPTED. Guard: the actor must own the group.
// The status update and the membership insert share one transaction:
// either both land or neither does.
func (sm *joinRequestStateMachine) Accept(ctx context.Context, actor *User, requestID uuid.UUID) (*JoinRequest, error) {
	request, err := sm.guardOwnerDecision(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	var updated *JoinRequest
	err = sm.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := sm.repo.Memberships().AddTx(ctx, tx, request.UserID, request.GroupID); err != nil {
			return err
		}

		updated, err = sm.repo.JoinRequests().UpdateStatusTx(ctx, tx, request.ID, JoinRequestAccepted)
		return err
	})

	if err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventJoinAccepted,
		Actor:      actorRef(actor),
		UserID:     request.UserID.String(),
		GroupID:    request.GroupID.String(),
		FromStatus: JoinRequestPending,
		ToStatus:   JoinRequestAccepted,
	})

	return updated, nil
}

// Reject moves PENDING -> REJECTED. Guard: the actor must own the group.
// No membership side effect; the row stays until the requester tries again.
func (sm *joinRequestStateMachine) Reject(ctx context.Context, actor *User, requestID uuid.UUID) (*JoinRequest, error) {
	request, err := sm.guardOwnerDecision(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	var updated *JoinRequest
	err = sm.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err = sm.repo.JoinRequests().UpdateStatusTx(ctx, tx, request.ID, JoinRequestRejected)
		return err
	})

	if err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventJoinRejected,
		Actor:      actorRef(actor),
		UserID:     request.UserID.String(),
		GroupID:    request.GroupID.String(),
		FromStatus: JoinRequestPending,
		ToStatus:   JoinRequestRejected,
	})

	return updated, nil
}

func (sm *joinRequestStateMachine) guardOwnerDecision(ctx context.Context, actor *User, requestID uuid.UUID) (*JoinRequest, error) {
	if actor == nil {
		return nil, goerrors.New("actor is required", goerrors.CategoryBadInput)
	}

	request, err := sm.repo.JoinRequests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	group, err := sm.repo.Groups().GetByID(ctx, request.GroupID)
	if err != nil {
		return nil, err
	}

	if group.OwnerID != actor.ID {
		return nil, ErrNotOwner.WithMetadata(map[string]any{
			"group_id": group.ID.String(),
		})
	}

	if !request.IsPending() {
		return nil, ErrAlreadyProcessed.WithMetadata(map[string]any{
			"request_id": request.ID.String(),
			"status":     string(request.Status),
		})
	}

	return request, nil
}

func (sm *joinRequestStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func actorRef(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}
