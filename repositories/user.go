//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"strings"

	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/storage"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUserRepository interface {
	Create(user domain.User) (domain.User, error)
	Get(id string) (domain.User, error)
	GetMany(ids []string) ([]domain.User, error)
	Patch(id string, patch domain.UserPatch) (domain.User, error)
	List(cursor *string, limit int, query string) (domain.Page[domain.User], error)
	Delete(id string) (bool, error)
	DeleteMany(ids []string) (int, error)
	EnsureSeed() error
}

// UserRepository is the directory of users.
type UserRepository struct {
	store *storage.Store
	users *storage.Collection[domain.User]
	log   *slog.Logger
}

func NewUserRepository(store *storage.Store, log *slog.Logger) *UserRepository {
	return &UserRepository{
		store: store,
		users: storage.NewCollection[domain.User](store, storage.KindUser, domain.NewValidator()),
		log:   log,
	}
}

// Create persists a new user. A missing id is generated.
func (r *UserRepository) Create(user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.users.Put(user); err != nil {
		return domain.User{}, err
	}
	r.log.Debug("User created", "id", user.ID)
	return user, nil
}

func (r *UserRepository) Get(id string) (domain.User, error) {
	user, found, err := r.users.Get(id)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, fmt.Errorf("%w: user %q", errors.ErrNotFound, id)
	}
	return user, nil
}

// GetMany returns the users that exist among ids, in the order of ids.
// Unknown ids are skipped, so callers compare lengths to detect them.
func (r *UserRepository) GetMany(ids []string) (users []domain.User, err error) {
	err = r.store.View(func(txn *storage.Txn) error {
		users = make([]domain.User, 0, len(ids))
		for _, id := range ids {
			user, found, err := r.users.GetTx(txn, id)
			if err != nil {
				return err
			}
			if found {
				users = append(users, user)
			}
		}
		return nil
	})
	return users, err
}

// Patch merges the provided fields into the stored user in a single
// read-modify-write transaction.
func (r *UserRepository) Patch(id string, patch domain.UserPatch) (patched domain.User, err error) {
	err = r.store.Update(func(txn *storage.Txn) error {
		user, found, err := r.users.GetTx(txn, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: user %q", errors.ErrNotFound, id)
		}
		patched = patch.Apply(user)
		return r.users.PutTx(txn, patched)
	})
	return patched, err
}

// List returns a page of users. A non-empty query keeps only the users whose
// name contains it, case-insensitively. The filter runs on the fetched page,
// so a filtered page may be shorter than limit and never carries a cursor.
func (r *UserRepository) List(cursor *string, limit int, query string) (domain.Page[domain.User], error) {
	page, err := r.users.List(cursor, limit)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	if query == "" {
		return page, nil
	}
	needle := strings.ToLower(query)
	page.Items = lo.Filter(page.Items, func(u domain.User, _ int) bool {
		return strings.Contains(strings.ToLower(u.Name), needle)
	})
	page.Next = nil
	return page, nil
}

func (r *UserRepository) Delete(id string) (bool, error) {
	return r.users.Delete(id)
}

func (r *UserRepository) DeleteMany(ids []string) (int, error) {
	return r.users.DeleteMany(ids)
}

func (r *UserRepository) EnsureSeed() error {
	_, err := r.users.EnsureSeed(domain.SeedUsers())
	return err
}
