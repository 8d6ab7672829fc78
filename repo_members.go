package studygroups

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Memberships manages the (user, group) membership relation. The unique
// pair constraint in the store is the concurrency mechanism: duplicate
// inserts surface as ErrAlreadyMember.
type Memberships interface {
	Add(ctx context.Context, userID, groupID uuid.UUID) (*GroupMember, error)
	AddTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (*GroupMember, error)
	Remove(ctx context.Context, userID, groupID uuid.UUID) error
	Exists(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
	CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*GroupMember, error)
}

// MembershipsRepository implements Memberships using Bun.
type MembershipsRepository struct {
	db *bun.DB
}

// NewMembershipsRepository creates a new repository.
func NewMembershipsRepository(db *bun.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

var _ Memberships = (*MembershipsRepository)(nil)

// Add implements Memberships.
func (r *MembershipsRepository) Add(ctx context.Context, userID, groupID uuid.UUID) (*GroupMember, error) {
	return r.AddTx(ctx, r.db, userID, groupID)
}

// AddTx implements Memberships. It participates in the accept transition's
// transaction so the request update and the membership insert land
// together or not at all.
func (r *MembershipsRepository) AddTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) (*GroupMember, error) {
	now := time.Now()
	member := &GroupMember{
		ID:       uuid.New(),
		UserID:   userID,
		GroupID:  groupID,
		JoinedAt: &now,
	}

	if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrAlreadyMember.WithMetadata(map[string]any{
				"user_id":  userID.String(),
				"group_id": groupID.String(),
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to add member")
	}

	return member, nil
}

// Remove implements Memberships.
func (r *MembershipsRepository) Remove(ctx context.Context, userID, groupID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*GroupMember)(nil)).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove member")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotMember.WithMetadata(map[string]any{
			"user_id":  userID.String(),
			"group_id": groupID.String(),
		})
	}

	return nil
}

// Exists implements Memberships.
func (r *MembershipsRepository) Exists(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*GroupMember)(nil)).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Exists(ctx)
}

// CountByGroup implements Memberships.
func (r *MembershipsRepository) CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*GroupMember)(nil)).
		Where("group_id = ?", groupID).
		Count(ctx)
}

// ListByGroup implements Memberships, earliest join first.
func (r *MembershipsRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*GroupMember, error) {
	var members []*GroupMember
	err := r.db.NewSelect().
		Model(&members).
		Relation("User").
		Where("mbr.group_id = ?", groupID).
		Order("mbr.joined_at ASC").
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return []*GroupMember{}, nil
		}
		return nil, err
	}

	return members, nil
}
