package vendors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type portalUser struct {
	vendorID     int64
	email        string
	passwordHash string
}

type memoryVendorRepo struct {
	vendors map[int64]Vendor
	users   []portalUser
	nextID  int64
}

type memoryVendorTx struct {
	repo *memoryVendorRepo
}

func newMemoryVendorRepo() *memoryVendorRepo {
	return &memoryVendorRepo{vendors: make(map[int64]Vendor)}
}

func (r *memoryVendorRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryVendorTx{repo: r})
}

func (r *memoryVendorRepo) Get(ctx context.Context, id int64) (Vendor, error) {
	vendor, ok := r.vendors[id]
	if !ok {
		return Vendor{}, ErrNotFound
	}
	return vendor, nil
}

func (r *memoryVendorRepo) List(ctx context.Context, limit, offset int, filters ListFilters) ([]Vendor, int, error) {
	var out []Vendor
	for _, vendor := range r.vendors {
		if filters.Active != nil && vendor.Active != *filters.Active {
			continue
		}
		out = append(out, vendor)
	}
	return out, len(out), nil
}

func (r *memoryVendorRepo) Update(ctx context.Context, v Vendor) error {
	if _, ok := r.vendors[v.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.vendors {
		if id != v.ID && existing.Email == v.Email {
			return ErrDuplicateEmail
		}
	}
	r.vendors[v.ID] = v
	return nil
}

func (r *memoryVendorRepo) SetActive(ctx context.Context, id int64, active bool) error {
	vendor, ok := r.vendors[id]
	if !ok {
		return ErrNotFound
	}
	vendor.Active = active
	r.vendors[id] = vendor
	return nil
}

func (tx *memoryVendorTx) CreateVendor(ctx context.Context, v Vendor) (int64, error) {
	for _, existing := range tx.repo.vendors {
		if existing.Email == v.Email {
			return 0, ErrDuplicateEmail
		}
	}
	tx.repo.nextID++
	v.ID = tx.repo.nextID
	tx.repo.vendors[v.ID] = v
	return v.ID, nil
}

func (tx *memoryVendorTx) CreatePortalUser(ctx context.Context, vendorID int64, email, passwordHash string) (int64, error) {
	tx.repo.users = append(tx.repo.users, portalUser{vendorID: vendorID, email: email, passwordHash: passwordHash})
	return int64(len(tx.repo.users)), nil
}

func TestCreateVendorWithPortalLogin(t *testing.T) {
	repo := newMemoryVendorRepo()
	svc := NewService(repo, nil, nil)

	vendor, err := svc.Create(context.Background(), CreateInput{
		Name:     "Acme Industrial",
		Email:    " Sales@Acme.example ",
		Password: "portal-secret",
	})
	require.NoError(t, err)
	require.True(t, vendor.Active)
	require.Equal(t, "sales@acme.example", vendor.Email)

	require.Len(t, repo.users, 1)
	require.Equal(t, vendor.ID, repo.users[0].vendorID)
	require.Equal(t, vendor.Email, repo.users[0].email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[0].passwordHash), []byte("portal-secret")))
}

func TestCreateVendorWithoutPassword(t *testing.T) {
	repo := newMemoryVendorRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:  "Cash Only Co",
		Email: "billing@cashonly.example",
	})
	require.NoError(t, err)
	require.Empty(t, repo.users)
}

func TestCreateVendorValidation(t *testing.T) {
	repo := newMemoryVendorRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{Email: "not-an-email", Password: "short"})
	require.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "name")
	require.Contains(t, vErr.Fields, "email")
	require.Contains(t, vErr.Fields, "password")
}

func TestCreateVendorDuplicateEmail(t *testing.T) {
	repo := newMemoryVendorRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "First", Email: "dup@acme.example"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Second", Email: "dup@acme.example"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUpdateVendorProfile(t *testing.T) {
	repo := newMemoryVendorRepo()
	svc := NewService(repo, nil, nil)

	vendor, err := svc.Create(context.Background(), CreateInput{Name: "Acme", Email: "a@acme.example"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), vendor.ID, UpdateInput{
		Name:  "Acme Industrial",
		Email: "a@acme.example",
		Phone: "+1 555 0100",
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "Acme Industrial", updated.Name)
	require.Equal(t, "+1 555 0100", updated.Phone)
}

func TestDeactivateReactivate(t *testing.T) {
	repo := newMemoryVendorRepo()
	svc := NewService(repo, nil, nil)

	vendor, err := svc.Create(context.Background(), CreateInput{Name: "Acme", Email: "a@acme.example"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), vendor.ID, 1))
	got, err := svc.Get(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.NoError(t, svc.Reactivate(context.Background(), vendor.ID, 1))
	got, err = svc.Get(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.True(t, got.Active)

	require.ErrorIs(t, svc.Deactivate(context.Background(), vendor.ID+99, 1), ErrNotFound)
}
