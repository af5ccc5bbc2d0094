package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"registrar/internal/account/models"
	"registrar/internal/account/store"
	"registrar/internal/profile/client"
	"registrar/internal/profile/client/mock"
	profilemodels "registrar/internal/profile/models"
	"registrar/internal/reconcile"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	auditmemory "registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite

	accounts   *store.InMemory
	profiles   *client.InMemory
	auditStore *auditmemory.Store
	pub        *publisher.Publisher
	repairs    chan reconcile.Task
	svc        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.accounts = store.NewInMemory()
	s.profiles = client.NewInMemory()
	s.auditStore = auditmemory.New()
	s.pub = publisher.NewPublisher(s.auditStore)
	s.repairs = make(chan reconcile.Task, 4)
	s.svc = New(Config{
		Accounts:       s.accounts,
		Profiles:       s.profiles,
		Hasher:         NewBcryptHasher(bcrypt.MinCost),
		Audit:          s.pub,
		Repairs:        s.repairs,
		ProfileTimeout: time.Second,
		ProfileRetries: 2,
		ProfileBackoff: time.Millisecond,
	})
}

func validRequest() models.RegistrationRequest {
	return models.RegistrationRequest{
		DisplayName:   "walter.white",
		ContactEmail:  "walter@example.com",
		ContactPhone:  "+15550100",
		RawCredential: "letmein61",
		RoleID:        2,
		FirstName:     "Walter",
		LastName:      "White",
		City:          "Albuquerque",
	}
}

func (s *ServiceSuite) actions(id domain.AccountID) []audit.Action {
	events, err := s.auditStore.ListByAccount(context.Background(), id)
	s.Require().NoError(err)
	actions := make([]audit.Action, len(events))
	for i, e := range events {
		actions[i] = e.Action
	}
	return actions
}

func (s *ServiceSuite) TestRegisterAccount_Success() {
	view, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	s.Equal(domain.AccountID(1), view.ID)
	s.Equal("walter.white", view.DisplayName)
	s.Equal(models.StatusActive, view.Status)
	s.False(view.CreatedAt.IsZero())
	s.NotEmpty(view.ProfileID)
	s.Equal("walter.white", view.ProfileUsername)

	s.Equal(1, s.accounts.Count())
	s.Equal(1, s.profiles.Count())

	// The profile is linked by the stringified account ID.
	profile, err := s.profiles.FindByAccountID(context.Background(), "1")
	s.Require().NoError(err)
	s.Equal("walter.white", profile.Username)
	s.Equal("walter@example.com", profile.Email)

	s.Equal([]audit.Action{audit.ActionAccountRegistered}, s.actions(view.ID))
}

func (s *ServiceSuite) TestRegisterAccount_CredentialIsHashedAtRest() {
	req := validRequest()
	_, err := s.svc.RegisterAccount(context.Background(), req)
	s.Require().NoError(err)

	account, err := s.accounts.FindByDisplayName(context.Background(), req.DisplayName)
	s.Require().NoError(err)
	s.NotEqual(req.RawCredential, account.CredentialHash)
	s.NotContains(account.CredentialHash, req.RawCredential)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(req.RawCredential)))
}

func (s *ServiceSuite) TestRegisterAccount_ValidationBoundaries() {
	cases := []struct {
		name       string
		display    string
		credential string
		wantErr    bool
	}{
		{"display name too short", "abc", "secret1", true},
		{"display name at minimum", "abcd", "secret1", false},
		{"credential too short", "valid.name", "12345", true},
		{"credential at minimum", "other.name", "123456", false},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := validRequest()
			req.DisplayName = tc.display
			req.RawCredential = tc.credential
			_, err := s.svc.RegisterAccount(context.Background(), req)
			if tc.wantErr {
				s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ServiceSuite) TestRegisterAccount_DuplicateDisplayName() {
	_, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	_, err = s.svc.RegisterAccount(context.Background(), validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	// The caller gets the existing account's handle back.
	s.ErrorContains(err, "account 1")

	// The duplicate never reaches either store.
	s.Equal(1, s.accounts.Count())
	s.Equal(1, s.profiles.Count())
}

func (s *ServiceSuite) TestRegisterAccount_DisplayNameIsCaseSensitive() {
	_, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	req := validRequest()
	req.DisplayName = strings.ToUpper(req.DisplayName)
	_, err = s.svc.RegisterAccount(context.Background(), req)
	s.NoError(err)
	s.Equal(2, s.accounts.Count())
}

// blindStore hides existing names from the fast-path check so the insert
// itself has to catch the race through its unique constraint.
type blindStore struct {
	*store.InMemory
}

func (b *blindStore) Exists(context.Context, string) (bool, error) {
	return false, nil
}

func (s *ServiceSuite) TestRegisterAccount_InsertRaceSurfacesConflict() {
	svc := New(Config{
		Accounts:       &blindStore{s.accounts},
		Profiles:       s.profiles,
		Hasher:         NewBcryptHasher(bcrypt.MinCost),
		ProfileTimeout: time.Second,
		ProfileBackoff: time.Millisecond,
	})

	_, err := svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	_, err = svc.RegisterAccount(context.Background(), validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(1, s.accounts.Count())
}

func (s *ServiceSuite) TestRegisterAccount_StoreUnavailable() {
	s.accounts.SetFailing(true)

	_, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	// Nothing was written anywhere and no repair is pending.
	s.Equal(0, s.profiles.Count())
	s.Empty(s.repairs)
}

func (s *ServiceSuite) TestRegisterAccount_TransientProfileFailureIsRetried() {
	s.profiles.FailNext(2, sentinel.ErrUnavailable)

	view, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)
	s.NotEmpty(view.ProfileID)
	s.Equal(1, s.profiles.Count())
	s.Empty(s.repairs)
}

func (s *ServiceSuite) TestRegisterAccount_ExhaustedRetriesIsPartial() {
	s.profiles.FailNext(10, sentinel.ErrUnavailable)

	_, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodePartialRegistration))

	var partial *PartialRegistrationError
	s.Require().ErrorAs(err, &partial)
	s.Equal(domain.AccountID(1), partial.AccountID)

	// The account exists and the insert was never replayed.
	s.Equal(1, s.accounts.Count())
	s.Equal(0, s.profiles.Count())

	// A repair task carrying the full profile request was queued.
	s.Require().Len(s.repairs, 1)
	task := <-s.repairs
	s.Equal(domain.AccountID(1), task.AccountID)
	s.Equal("1", task.Request.AccountID)
	s.Equal("walter.white", task.Request.Username)

	s.Equal([]audit.Action{audit.ActionRegistrationPartial}, s.actions(partial.AccountID))
}

func (s *ServiceSuite) TestRegisterAccount_RemoteDuplicateResolvesToSuccess() {
	// A profile for the next account ID already exists remotely, as happens
	// when an earlier attempt landed after its response deadline.
	_, err := s.profiles.CreateProfile(context.Background(), profilemodels.CreationRequest{
		AccountID: "1",
		Username:  "walter.white",
	}, time.Second)
	s.Require().NoError(err)

	view, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)
	s.NotEmpty(view.ProfileID)
	s.Equal(1, s.profiles.Count())
	s.Equal([]audit.Action{audit.ActionAccountRegistered}, s.actions(view.ID))
}

func (s *ServiceSuite) TestRegisterAccount_CancelledCallerStillLeavesRepairableState() {
	s.profiles.Latency = time.Minute
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.svc.RegisterAccount(ctx, validRequest())
		done <- err
	}()

	// Cancel once the account insert has happened.
	s.Eventually(func() bool { return s.accounts.Count() == 1 }, time.Second, time.Millisecond)
	cancel()

	err := <-done
	s.True(dErrors.HasCode(err, dErrors.CodePartialRegistration))
	s.ErrorIs(err, context.Canceled)
	s.Len(s.repairs, 1)
}

func (s *ServiceSuite) TestGetAccount_CombinesProfile() {
	created, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	view, err := s.svc.GetAccount(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, view.ID)
	s.Equal(created.ProfileID, view.ProfileID)
	s.Equal("walter.white", view.ProfileUsername)
}

func (s *ServiceSuite) TestGetAccount_PartialAccountServedWithoutProfile() {
	s.profiles.FailNext(10, sentinel.ErrUnavailable)
	_, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().Error(err)

	view, err := s.svc.GetAccount(context.Background(), domain.AccountID(1))
	s.Require().NoError(err)
	s.Empty(view.ProfileID)
	s.Equal("walter.white", view.DisplayName)
}

func (s *ServiceSuite) TestGetAccount_NotFound() {
	_, err := s.svc.GetAccount(context.Background(), domain.AccountID(99))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateAccount_AppliesFields() {
	created, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	email := "heisenberg@example.com"
	status := models.StatusInactive
	view, err := s.svc.UpdateAccount(context.Background(), created.ID, models.UpdateRequest{
		ContactEmail: &email,
		Status:       &status,
	})
	s.Require().NoError(err)
	s.Equal(email, view.ContactEmail)
	s.Equal(models.StatusInactive, view.Status)
	s.Equal(created.CreatedAt, view.CreatedAt)

	s.Contains(s.actions(created.ID), audit.ActionAccountUpdated)
}

func (s *ServiceSuite) TestUpdateAccount_RenameToTakenNameConflicts() {
	first, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	second := validRequest()
	second.DisplayName = "jesse.pinkman"
	other, err := s.svc.RegisterAccount(context.Background(), second)
	s.Require().NoError(err)

	taken := first.DisplayName
	_, err = s.svc.UpdateAccount(context.Background(), other.ID, models.UpdateRequest{
		DisplayName: &taken,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestAuditTrail_ReturnsRecordedEvents() {
	created, err := s.svc.RegisterAccount(context.Background(), validRequest())
	s.Require().NoError(err)

	events, err := s.svc.AuditTrail(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionAccountRegistered, events[0].Action)
}

func TestRegisterAccount_TimeoutReachesClientPerAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mock.NewMockClient(ctrl)

	// The configured per-attempt timeout is handed to the client on every
	// attempt; the deadline on the first attempt does not shrink the second.
	gomock.InOrder(
		profiles.EXPECT().
			CreateProfile(gomock.Any(), gomock.Any(), 2*time.Second).
			Return(nil, sentinel.ErrTimeout),
		profiles.EXPECT().
			CreateProfile(gomock.Any(), gomock.Any(), 2*time.Second).
			Return(&profilemodels.Profile{ID: "b7f0", AccountID: "1", Username: "walter.white"}, nil),
	)

	svc := New(Config{
		Accounts:       store.NewInMemory(),
		Profiles:       profiles,
		Hasher:         NewBcryptHasher(bcrypt.MinCost),
		ProfileTimeout: 2 * time.Second,
		ProfileRetries: 1,
		ProfileBackoff: time.Millisecond,
	})

	view, err := svc.RegisterAccount(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if view.ProfileID != "b7f0" {
		t.Fatalf("profile id = %q, want %q", view.ProfileID, "b7f0")
	}
}

func TestNewBcryptHasher_DefaultsCost(t *testing.T) {
	h := NewBcryptHasher(0)
	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestPartialRegistrationError_Message(t *testing.T) {
	err := &PartialRegistrationError{AccountID: domain.AccountID(7), Err: errors.New("profile service unavailable")}
	want := "registration of account 7 incomplete: profile service unavailable"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}
