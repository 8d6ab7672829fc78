package studygroups

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// JoinRequests manages join request persistence. The unique (user, group)
// constraint guarantees at most one row per pair; racing creates surface
// as ErrAlreadyRequested.
type JoinRequests interface {
	CreateTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (*JoinRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*JoinRequest, error)
	GetByUserAndGroup(ctx context.Context, userID, groupID uuid.UUID) (*JoinRequest, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status JoinRequestStatus) (*JoinRequest, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ListPendingByGroup(ctx context.Context, groupID uuid.UUID) ([]*JoinRequest, error)
	ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]*JoinRequest, error)
	CountPendingByGroup(ctx context.Context, groupID uuid.UUID) (int, error)
}

// JoinRequestsRepository implements JoinRequests using Bun.
type JoinRequestsRepository struct {
	db *bun.DB
}

// NewJoinRequestsRepository creates a new repository.
func NewJoinRequestsRepository(db *bun.DB) *JoinRequestsRepository {
	return &JoinRequestsRepository{db: db}
}

var _ JoinRequests = (*JoinRequestsRepository)(nil)

// CreateTx implements JoinRequests. New rows always start PENDING.
func (r *JoinRequestsRepository) CreateTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (*JoinRequest, error) {
	now := time.Now()
	request := &JoinRequest{
		ID:        uuid.New(),
		UserID:    userID,
		GroupID:   groupID,
		Status:    JoinRequestPending,
		CreatedAt: &now,
	}

	if _, err := tx.NewInsert().Model(request).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrAlreadyRequested.WithMetadata(map[string]any{
				"user_id":  userID.String(),
				"group_id": groupID.String(),
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create join request")
	}

	return request, nil
}

// GetByID implements JoinRequests.
func (r *JoinRequestsRepository) GetByID(ctx context.Context, id uuid.UUID) (*JoinRequest, error) {
	request := &JoinRequest{}
	err := r.db.NewSelect().
		Model(request).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrRequestNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return request, nil
}

// GetByUserAndGroup implements JoinRequests.
func (r *JoinRequestsRepository) GetByUserAndGroup(ctx context.Context, userID, groupID uuid.UUID) (*JoinRequest, error) {
	request := &JoinRequest{}
	err := r.db.NewSelect().
		Model(request).
		Where("?TableAlias.user_id = ? AND ?TableAlias.group_id = ?", userID, groupID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrRequestNotFound.WithMetadata(map[string]any{
				"user_id":  userID.String(),
				"group_id": groupID.String(),
			})
		}
		return nil, err
	}

	return request, nil
}

// UpdateStatusTx implements JoinRequests.
func (r *JoinRequestsRepository) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status JoinRequestStatus) (*JoinRequest, error) {
	if !status.IsValid() {
		return nil, errors.New("invalid join request status", errors.CategoryBadInput)
	}

	request := &JoinRequest{ID: id, Status: status}
	res, err := tx.NewUpdate().
		Model(request).
		Column("status").
		WherePK().
		Exec(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update join request")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrRequestNotFound.WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return request, nil
}

// DeleteTx implements JoinRequests.
func (r *JoinRequestsRepository) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*JoinRequest)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ListPendingByGroup implements JoinRequests: the owner's review queue,
// oldest first.
func (r *JoinRequestsRepository) ListPendingByGroup(ctx context.Context, groupID uuid.UUID) ([]*JoinRequest, error) {
	var requests []*JoinRequest
	err := r.db.NewSelect().
		Model(&requests).
		Relation("User").
		Where("jrq.group_id = ? AND jrq.status = ?", groupID, JoinRequestPending).
		Order("jrq.created_at ASC").
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return []*JoinRequest{}, nil
		}
		return nil, err
	}

	return requests, nil
}

// ListPendingByUser implements JoinRequests: a user's open asks, newest
// first.
func (r *JoinRequestsRepository) ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]*JoinRequest, error) {
	var requests []*JoinRequest
	err := r.db.NewSelect().
		Model(&requests).
		Relation("Group").
		Relation("Group.Owner").
		Where("jrq.user_id = ? AND jrq.status = ?", userID, JoinRequestPending).
		Order("jrq.created_at DESC").
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return []*JoinRequest{}, nil
		}
		return nil, err
	}

	return requests, nil
}

// CountPendingByGroup implements JoinRequests.
func (r *JoinRequestsRepository) CountPendingByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*JoinRequest)(nil)).
		Where("group_id = ? AND status = ?", groupID, JoinRequestPending).
		Count(ctx)
}
