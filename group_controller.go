package studygroups

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
)

// GroupResponse is the list item projection of a group. Pure mapping, no
// store access.
type GroupResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	OwnerID     string        `json:"owner_id"`
	OwnerName   string        `json:"owner_name,omitempty"`
	MemberCount int           `json:"member_count"`
	Relation    GroupRelation `json:"relation"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}

// MemberResponse is the projection of one membership row.
type MemberResponse struct {
	UserID   string     `json:"user_id"`
	Name     string     `json:"name"`
	IsOwner  bool       `json:"is_owner"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// JoinRequestResponse is the projection of one join request row.
type JoinRequestResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name,omitempty"`
	GroupID   string            `json:"group_id"`
	GroupName string            `json:"group_name,omitempty"`
	Status    JoinRequestStatus `json:"status"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
}

// GroupDetailResponse is the full detail projection. PendingRequests is
// only populated when the viewer owns the group.
type GroupDetailResponse struct {
	GroupResponse
	Members         []MemberResponse      `json:"members"`
	PendingRequests []JoinRequestResponse `json:"pending_requests,omitempty"`
	CanManage       bool                  `json:"can_manage"`
	CanLeave        bool                  `json:"can_leave"`
	CanRequestJoin  bool                  `json:"can_request_join"`
	CanCancel       bool                  `json:"can_cancel"`
}

func toGroupResponse(group *StudyGroup, relation GroupRelation, memberCount int) GroupResponse {
	out := GroupResponse{
		ID:          group.ID.String(),
		Name:        group.Name,
		Description: group.Description,
		OwnerID:     group.OwnerID.String(),
		MemberCount: memberCount,
		Relation:    relation,
		CreatedAt:   group.CreatedAt,
	}

	if group.Owner != nil {
		out.OwnerName = group.Owner.Name
	}

	return out
}

func toMemberResponse(member *GroupMember, ownerID uuid.UUID) MemberResponse {
	out := MemberResponse{
		UserID:   member.UserID.String(),
		IsOwner:  member.UserID == ownerID,
		JoinedAt: member.JoinedAt,
	}

	if member.User != nil {
		out.Name = member.User.Name
	}

	return out
}

func toJoinRequestResponse(request *JoinRequest) JoinRequestResponse {
	out := JoinRequestResponse{
		ID:        request.ID.String(),
		UserID:    request.UserID.String(),
		GroupID:   request.GroupID.String(),
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	}

	if request.User != nil {
		out.UserName = request.User.Name
	}

	if request.Group != nil {
		out.GroupName = request.Group.Name
	}

	return out
}

func RegisterGroupRoutes[T any](app router.Router[T], opts ...GroupControllerOption) {

	controller := NewGroupController(opts...)

	app.Get(controller.Routes.Groups, controller.Index).SetName("groups.index")
	app.Post(controller.Routes.Groups, controller.Create).SetName("groups.create")
	app.Get(controller.Routes.Groups+"/:id", controller.Show).SetName("groups.show")

	app.Post(controller.Routes.Groups+"/:id/join", controller.RequestJoin).
		SetName("groups.join")
	app.Post(controller.Routes.Groups+"/:id/join/cancel", controller.CancelRequest).
		SetName("groups.join.cancel")
	app.Post(controller.Routes.Groups+"/:id/leave", controller.Leave).
		SetName("groups.leave")

	app.Post(controller.Routes.Requests+"/:id/accept", controller.Accept).
		SetName("requests.accept")
	app.Post(controller.Routes.Requests+"/:id/reject", controller.Reject).
		SetName("requests.reject")

	app.Get(controller.Routes.Dashboard, controller.Dashboard).
		SetName("dashboard.index")
}

type GroupControllerRoutes struct {
	Groups    string
	Requests  string
	Dashboard string
}

type GroupControllerViews struct {
	Index     string
	Show      string
	Dashboard string
}

type GroupController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Policy       AuthorizationPolicy
	StateMachine JoinRequestStateMachine
	ActivitySink ActivitySink
	Routes       *GroupControllerRoutes
	Views        *GroupControllerViews
	ErrorHandler router.ErrorHandler
}

type GroupControllerOption func(*GroupController) *GroupController

func NewGroupController(opts ...GroupControllerOption) *GroupController {
	c := &GroupController{
		Logger:       defLogger{},
		ErrorHandler: defaultControllerErrHandler,
		ActivitySink: noopActivitySink{},
		Routes: &GroupControllerRoutes{
			Groups:    "/groups",
			Requests:  "/requests",
			Dashboard: "/dashboard",
		},
		Views: &GroupControllerViews{
			Index:     "groups/index",
			Show:      "groups/show",
			Dashboard: "dashboard",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in group controller...")
	}

	if c.Policy == nil {
		c.Policy = NewAuthorizationPolicy(c.Repo.Memberships(), c.Repo.JoinRequests(), c.Logger)
	}

	if c.StateMachine == nil {
		c.StateMachine = NewJoinRequestStateMachine(c.Repo,
			WithStateMachineActivitySink(c.ActivitySink),
			WithStateMachineLogger(c.Logger),
		)
	}

	return c
}

// viewer extracts the authenticated user the session middleware resolved.
func (a *GroupController) viewer(ctx router.Context) (*User, error) {
	user, ok := UserFromRouter(ctx, "")
	if !ok || user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// Index lists every group with the viewer's relation to each.
func (a *GroupController) Index(ctx router.Context) error {
	user, err := a.viewer(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	groups, err := a.Repo.Groups().List(ctx.Context())
	if err != nil {
		a.Logger.Error("group index list error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	records := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		relation, err := a.Policy.Authorize(ctx.Context(), user, group)
		if err != nil {
			return a.ErrorHandler(ctx, err)
		}

		count, err := a.Repo.Memberships().CountByGroup(ctx.Context(), group.ID)
		if err != nil {
			return a.ErrorHandler(ctx, err)
		}

		records = append(records, toGroupResponse(group, relation, count))
	}

	return ctx.Render(a.Views.Index, router.ViewContext{
		"records": records,
	})
}

// Show renders the group detail. Pending requests are included only for
// the owner.
func (a *GroupController) Show(ctx router.Context) error {
	user, err := a.viewer(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	groupID, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrGroupNotFound)
	}

	group, err := a.Repo.Groups().GetByID(ctx.Context(), groupID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	relation, err := a.Policy.Authorize(ctx.Context(), user, group)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	members, err := a.Repo.Memberships().ListByGroup(ctx.Context(), group.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record := GroupDetailResponse{
		GroupResponse:  toGroupResponse(group, relation, len(members)),
		Members:        make([]MemberResponse, 0, len(members)),
		CanManage:      relation.CanManageRequests(),
		CanLeave:       relation.CanLeave(),
		CanRequestJoin: relation.CanRequestJoin(),
		CanCancel:      relation.CanCancelRequest(),
	}

	for _, member := range members {
		record.Members = append(record.Members, toMemberResponse(member, group.OwnerID))
	}

	if relation.CanManageRequests() {
		pending, err := a.Repo.JoinRequests().ListPendingByGroup(ctx.Context(), group.ID)
		if err != nil {
			return a.ErrorHandler(ctx, err)
		}

		record.PendingRequests = make([]JoinRequestResponse, 0, len(pending))
		for _, request := range pending {
			record.PendingRequests = append(record.PendingRequests, toJoinRequestResponse(request))
		}
	}

	return ctx.Render(a.Views.Show, router.ViewContext{
		"record": record,
	})
}

// Dashboard lists the viewer's groups and their outgoing pending requests.
func (a *GroupController) Dashboard(ctx router.Context) error {
	user, err := a.viewer(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	groups, err := a.Repo.Groups().ListForUser(ctx.Context(), user.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	records := make([]GroupResponse, 0, len(groups))
	for _, group := range groups {
		relation := RelationMember
		if group.OwnerID == user.ID {
			relation = RelationOwner
		}

		count, err := a.Repo.Memberships().CountByGroup(ctx.Context(), group.ID)
		if err != nil {
			return a.ErrorHandler(ctx, err)
		}

		records = append(records, toGroupResponse(group, relation, count))
	}

	pending, err := a.Repo.JoinRequests().ListPendingByUser(ctx.Context(), user.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	requests := make([]JoinRequestResponse, 0, len(pending))
	for _, request := range pending {
		requests = append(requests, toJoinRequestResponse(request))
	}

	return ctx.Render(a.Views.Dashboard, router.ViewContext{
		"records":  records,
		"requests": requests,
	})
}

// CreateGroupPayload is the group creation form payload
type CreateGroupPayload struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
}

// Validate will validate the payload
func (r CreateGroupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

// Create makes a new group owned by the viewer. The owner's membership
// row is written in the same transaction as the group.
func (a *GroupController) Create(ctx router.Context) error {
	user, err := a.viewer(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(CreateGroupPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("create group parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Redirect(a.Routes.Groups, fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("create group validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Redirect(a.Routes.Groups, fiber.StatusSeeOther)
	}

	var res *CreateGroupResponse
	msg := CreateGroupMessage{
		Name:        payload.Name,
		Description: payload.Description,
		OwnerID:     user.ID,
		OnResponse: func(r *CreateGroupResponse) {
			res = r
		},
	}

	createGroup := CreateGroupHandler{repo: a.Repo, sink: a.ActivitySink}
	if err := createGroup.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("create group error", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating group",
		}).Redirect(a.Routes.Groups, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Group created",
	}).Redirect(a.Routes.Groups+"/"+res.Group.ID.String(), fiber.StatusSeeOther)
}

// RequestJoin submits a join request for the viewer.
func (a *GroupController) RequestJoin(ctx router.Context) error {
	return a.transition(ctx, "Request sent", func(user *User, id uuid.UUID) error {
		_, err := a.StateMachine.RequestJoin(ctx.Context(), user, id)
		return err
	})
}

// CancelRequest withdraws the viewer's own pending request.
func (a *GroupController) CancelRequest(ctx router.Context) error {
	return a.transition(ctx, "Request cancelled", func(user *User, id uuid.UUID) error {
		return a.StateMachine.Cancel(ctx.Context(), user, id)
	})
}

// Accept approves a pending request. Owner only.
func (a *GroupController) Accept(ctx router.Context) error {
	return a.transition(ctx, "Request accepted", func(user *User, id uuid.UUID) error {
		_, err := a.StateMachine.Accept(ctx.Context(), user, id)
		return err
	})
}

// Reject declines a pending request. Owner only.
func (a *GroupController) Reject(ctx router.Context) error {
	return a.transition(ctx, "Request rejected", func(user *User, id uuid.UUID) error {
		_, err := a.StateMachine.Reject(ctx.Context(), user, id)
		return err
	})
}

// Leave removes the viewer's membership. The owner cannot leave their own
// group.
func (a *GroupController) Leave(ctx router.Context) error {
	user, err := a.viewer(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	groupID, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrGroupNotFound)
	}

	group, err := a.Repo.Groups().GetByID(ctx.Context(), groupID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	relation, err := a.Policy.Authorize(ctx.Context(), user, group)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if relation == RelationOwner {
		return a.fail(ctx, ErrOwnerCannotLeave)
	}

	if !relation.CanLeave() {
		return a.fail(ctx, ErrNotMember)
	}

	if err := a.Repo.Memberships().Remove(ctx.Context(), user.ID, group.ID); err != nil {
		return a.fail(ctx, err)
	}

	a.record(ctx, ActivityEvent{
		EventType: ActivityEventMemberLeft,
		Actor:     actorRef(user),
		UserID:    user.ID.String(),
		GroupID:   group.ID.String(),
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "You left the group",
	}).Redirect(a.Routes.Groups, fiber.StatusSeeOther)
}

func (a *GroupController) transition(ctx router.Context, success string, fn func(user *User, id uuid.UUID) error) error {
	user, err := a.viewer(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrGroupNotFound)
	}

	if err := fn(user, id); err != nil {
		return a.fail(ctx, err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": success,
	}).Redirect(a.refererOr(ctx, a.Routes.Groups), fiber.StatusSeeOther)
}

func (a *GroupController) fail(ctx router.Context, err error) error {
	a.Logger.Error("group action error", "error", err)
	return flash.WithError(ctx, router.ViewContext{
		"error_message": err.Error(),
	}).Redirect(a.refererOr(ctx, a.Routes.Groups), fiber.StatusSeeOther)
}

func (a *GroupController) refererOr(ctx router.Context, def string) string {
	if ref := string(ctx.Referer()); ref != "" {
		return ref
	}
	return def
}

func (a *GroupController) record(ctx router.Context, event ActivityEvent) {
	sink := normalizeActivitySink(a.ActivitySink)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := sink.Record(ctx.Context(), event); err != nil {
		a.Logger.Warn("group controller activity sink error: %v", err)
	}
}
