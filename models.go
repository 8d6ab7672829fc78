package studygroups

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the account level role, fixed at registration
type UserRole = string

const (
	// RoleStudent is the default role for registered accounts
	RoleStudent UserRole = "STUDENT"
	// RoleAdmin is reserved for operational accounts
	RoleAdmin UserRole = "ADMIN"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// StudyGroup is the group model. The owner is a distinguished member: the
// sole authority over join requests, and exempt from the leave action.
type StudyGroup struct {
	bun.BaseModel `bun:"table:study_groups,alias:grp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Owner         *User      `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GroupMember is the membership relation, unique per (user, group).
type GroupMember struct {
	bun.BaseModel `bun:"table:group_members,alias:mbr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	GroupID       uuid.UUID  `bun:"group_id,notnull,type:uuid" json:"group_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Group         *StudyGroup `bun:"rel:belongs-to,join:group_id=id" json:"group,omitempty"`
	JoinedAt      *time.Time `bun:"joined_at,nullzero,default:current_timestamp" json:"joined_at,omitempty"`
}

// JoinRequestStatus enumerates the join request lifecycle states.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestAccepted JoinRequestStatus = "ACCEPTED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// IsValid checks the status is one of the modeled states
func (s JoinRequestStatus) IsValid() bool {
	switch s {
	case JoinRequestPending, JoinRequestAccepted, JoinRequestRejected:
		return true
	default:
		return false
	}
}

// JoinRequest is a pending ask by a non-member to join a group. At most
// one row exists per (user, group): a rejected row is deleted before a new
// request may be created, an accepted row persists alongside the
// membership it produced.
type JoinRequest struct {
	bun.BaseModel `bun:"table:group_join_requests,alias:jrq"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID         `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	GroupID       uuid.UUID         `bun:"group_id,notnull,type:uuid" json:"group_id,omitempty"`
	Status        JoinRequestStatus `bun:"status,notnull" json:"status,omitempty"`
	User          *User             `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Group         *StudyGroup       `bun:"rel:belongs-to,join:group_id=id" json:"group,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// IsPending reports whether the request can still be acted on.
func (r *JoinRequest) IsPending() bool {
	return r != nil && r.Status == JoinRequestPending
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleStudent
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
