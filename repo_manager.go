package studygroups

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Groups() Groups
	Memberships() Memberships
	JoinRequests() JoinRequests
}

type mngr struct {
	db           *bun.DB
	users        Users
	groups       Groups
	members      Memberships
	joinRequests JoinRequests
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db),
		groups:       NewGroupsRepository(db),
		members:      NewMembershipsRepository(db),
		joinRequests: NewJoinRequestsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.groups == nil {
		return errors.New("repository groups should be initialized")
	}

	if m.members == nil {
		return errors.New("repository memberships should be initialized")
	}

	if m.joinRequests == nil {
		return errors.New("repository joinRequests should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Groups() Groups {
	return m.groups
}

func (m mngr) Memberships() Memberships {
	return m.members
}

func (m mngr) JoinRequests() JoinRequests {
	return m.joinRequests
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
