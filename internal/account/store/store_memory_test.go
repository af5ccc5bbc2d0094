package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"registrar/internal/account/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newAccount(name string) *models.Account {
	return models.NewAccount(models.RegistrationRequest{
		DisplayName:   name,
		ContactEmail:  name + "@x.com",
		RawCredential: "secret1",
	}, "hash-"+name)
}

func (s *MemoryStoreSuite) TestInsertAssignsIdentity() {
	a, err := s.store.Insert(s.ctx, s.newAccount("alice"))
	s.Require().NoError(err)
	s.Equal(domain.AccountID(1), a.ID)
	s.False(a.CreatedAt.IsZero(), "store assigns created_at at insert")

	b, err := s.store.Insert(s.ctx, s.newAccount("bobby"))
	s.Require().NoError(err)
	s.Equal(domain.AccountID(2), b.ID, "ids are sequential")
}

func (s *MemoryStoreSuite) TestDisplayNameUniqueness() {
	_, err := s.store.Insert(s.ctx, s.newAccount("alice"))
	s.Require().NoError(err)

	_, err = s.store.Insert(s.ctx, s.newAccount("alice"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
	s.Equal(1, s.store.Count(), "conflicting insert writes nothing")

	exists, err := s.store.Exists(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.Exists(s.ctx, "ALICE")
	s.Require().NoError(err)
	s.False(exists, "uniqueness is byte-exact")
}

func (s *MemoryStoreSuite) TestLookups() {
	inserted, err := s.store.Insert(s.ctx, s.newAccount("alice"))
	s.Require().NoError(err)

	byID, err := s.store.FindByID(s.ctx, inserted.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.DisplayName)

	byName, err := s.store.FindByDisplayName(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(inserted.ID, byName.ID)

	_, err = s.store.FindByID(s.ctx, domain.AccountID(99))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestUpdate() {
	s.Run("preserves created_at and enforces uniqueness", func() {
		a, err := s.store.Insert(s.ctx, s.newAccount("alice"))
		s.Require().NoError(err)
		_, err = s.store.Insert(s.ctx, s.newAccount("bobby"))
		s.Require().NoError(err)

		a.ContactEmail = "updated@x.com"
		updated, err := s.store.Update(s.ctx, a)
		s.Require().NoError(err)
		s.Equal("updated@x.com", updated.ContactEmail)
		s.Equal(a.CreatedAt, updated.CreatedAt)

		a.DisplayName = "bobby"
		_, err = s.store.Update(s.ctx, a)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("rename frees the old name", func() {
		a, err := s.store.Insert(s.ctx, s.newAccount("carol"))
		s.Require().NoError(err)

		a.DisplayName = "carola"
		_, err = s.store.Update(s.ctx, a)
		s.Require().NoError(err)

		exists, err := s.store.Exists(s.ctx, "carol")
		s.Require().NoError(err)
		s.False(exists)
	})
}

func (s *MemoryStoreSuite) TestSimulatedOutage() {
	s.store.SetFailing(true)

	_, err := s.store.Insert(s.ctx, s.newAccount("alice"))
	s.Require().ErrorIs(err, sentinel.ErrUnavailable)

	_, err = s.store.Exists(s.ctx, "alice")
	s.Require().ErrorIs(err, sentinel.ErrUnavailable)
}
