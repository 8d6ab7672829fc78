package studygroups

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CreateGroupMessage struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`

	OnResponse func(*CreateGroupResponse)
}

func (e CreateGroupMessage) Type() string { return "group.create" }

type CreateGroupResponse struct {
	Group      *StudyGroup  `json:"group"`
	Membership *GroupMember `json:"membership"`
}

// CreateGroupHandler creates a group and the owner's membership row in a
// single transaction. The owner is always a member of their own group.
type CreateGroupHandler struct {
	repo RepositoryManager
	sink ActivitySink
}

func NewCreateGroupHandler(repo RepositoryManager, sink ActivitySink) *CreateGroupHandler {
	return &CreateGroupHandler{repo: repo, sink: normalizeActivitySink(sink)}
}

func (h *CreateGroupHandler) Execute(ctx context.Context, event CreateGroupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during group creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateGroupHandler) execute(ctx context.Context, event CreateGroupMessage) error {
	if event.OwnerID == uuid.Nil {
		return goerrors.New("owner id is required", goerrors.CategoryBadInput)
	}

	res := &CreateGroupResponse{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		group, err := h.repo.Groups().CreateTx(ctx, tx, &StudyGroup{
			Name:        event.Name,
			Description: event.Description,
			OwnerID:     event.OwnerID,
		})
		if err != nil {
			return err
		}

		membership, err := h.repo.Memberships().AddTx(ctx, tx, event.OwnerID, group.ID)
		if err != nil {
			return err
		}

		res.Group = group
		res.Membership = membership
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "group creation transaction failed")
	}

	sink := normalizeActivitySink(h.sink)
	if err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventGroupCreated,
		Actor:      ActorRef{ID: event.OwnerID.String(), Type: "user"},
		UserID:     event.OwnerID.String(),
		GroupID:    res.Group.ID.String(),
		OccurredAt: time.Now(),
	}); err != nil {
		defLogger{}.Warn("create group activity sink error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(res)
	}

	return nil
}
