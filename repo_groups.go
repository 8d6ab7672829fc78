package studygroups

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Groups manages study group persistence.
type Groups interface {
	Create(ctx context.Context, group *StudyGroup) (*StudyGroup, error)
	CreateTx(ctx context.Context, tx bun.IDB, group *StudyGroup) (*StudyGroup, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StudyGroup, error)
	List(ctx context.Context) ([]*StudyGroup, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*StudyGroup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GroupsRepository implements Groups using Bun.
type GroupsRepository struct {
	db *bun.DB
}

// NewGroupsRepository creates a new repository.
func NewGroupsRepository(db *bun.DB) *GroupsRepository {
	return &GroupsRepository{db: db}
}

var _ Groups = (*GroupsRepository)(nil)

// Create inserts a group outside of a caller supplied transaction. Prefer
// RepositoryManager.RunInTx with CreateTx when the owner self-join must be
// part of the same transition.
func (r *GroupsRepository) Create(ctx context.Context, group *StudyGroup) (*StudyGroup, error) {
	return r.CreateTx(ctx, r.db, group)
}

// CreateTx implements Groups.
func (r *GroupsRepository) CreateTx(ctx context.Context, tx bun.IDB, group *StudyGroup) (*StudyGroup, error) {
	if group == nil {
		return nil, errors.New("group must not be nil", errors.CategoryBadInput)
	}

	group.Name = strings.TrimSpace(group.Name)
	group.Description = strings.TrimSpace(group.Description)

	if group.Name == "" {
		return nil, errors.New("group name is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if len(group.Name) > 100 {
		return nil, errors.New("group name must be less than 100 characters", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}

	now := time.Now()
	group.CreatedAt = &now
	group.UpdatedAt = &now

	if _, err := tx.NewInsert().Model(group).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create group")
	}

	return group, nil
}

// GetByID implements Groups. The owner relation is loaded for response
// shaping.
func (r *GroupsRepository) GetByID(ctx context.Context, id uuid.UUID) (*StudyGroup, error) {
	group := &StudyGroup{}
	err := r.db.NewSelect().
		Model(group).
		Relation("Owner").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrGroupNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return group, nil
}

// List implements Groups, newest first.
func (r *GroupsRepository) List(ctx context.Context) ([]*StudyGroup, error) {
	var groups []*StudyGroup
	err := r.db.NewSelect().
		Model(&groups).
		Relation("Owner").
		Order("grp.created_at DESC").
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return []*StudyGroup{}, nil
		}
		return nil, err
	}

	return groups, nil
}

// ListForUser implements Groups: groups the user holds a membership in,
// most recently joined first.
func (r *GroupsRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*StudyGroup, error) {
	var groups []*StudyGroup
	err := r.db.NewSelect().
		Model(&groups).
		Relation("Owner").
		Join("JOIN group_members AS mbr ON mbr.group_id = grp.id").
		Where("mbr.user_id = ?", userID).
		Order("mbr.joined_at DESC").
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return []*StudyGroup{}, nil
		}
		return nil, err
	}

	return groups, nil
}

// Delete implements Groups.
func (r *GroupsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*StudyGroup)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
