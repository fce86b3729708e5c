package service

import (
	"errors"
	"go-clinic-auth/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockTokenRepo is a mock implementation of ITokenRepository.
type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Create(record *model.TokenRecord) error {
	args := m.Called(record)
	return args.Error(0)
}
func (m *mockTokenRepo) GetByToken(token string) (*model.TokenRecord, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenRecord), args.Error(1)
}
func (m *mockTokenRepo) GetByOwnerEmail(email string, kind model.TokenKind) (*model.TokenRecord, error) {
	args := m.Called(email, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenRecord), args.Error(1)
}
func (m *mockTokenRepo) DeleteByToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *mockTokenRepo) DeleteByOwnerEmail(email string, kind model.TokenKind) error {
	args := m.Called(email, kind)
	return args.Error(0)
}
func (m *mockTokenRepo) ConsumeByToken(token string, kind model.TokenKind) (*model.TokenRecord, error) {
	args := m.Called(token, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenRecord), args.Error(1)
}
func (m *mockTokenRepo) DeleteExpired(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}

func TestTokenIssuer_DefaultTTLPerKind(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret))

	cases := []struct {
		name   string
		claims model.TokenClaims
		ttl    time.Duration
	}{
		{"access", model.NewAccessClaims(1, model.RoleNurse), 8 * time.Hour},
		{"refresh", model.NewRefreshClaims(1), 30 * 24 * time.Hour},
		{"password_reset", model.NewResetClaims(1, model.AccountTypeStaff), 4 * time.Hour},
		{"invite", model.NewInviteClaims("alice@co.com", model.RoleNurse), 8 * time.Hour},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(mockTokenRepo)
			mockRepo.On("Create", mock.MatchedBy(func(rec *model.TokenRecord) bool {
				return rec.Kind == tc.claims.TokenKind() && rec.ExpiresAt != nil
			})).Return(nil).Once()

			issuer := NewTokenIssuer(codec, mockRepo)
			issued, err := issuer.Issue(tc.claims, 0)

			assert.NoError(t, err)
			assert.NotEmpty(t, issued.Token)
			assert.WithinDuration(t, time.Now().Add(tc.ttl), issued.ExpiresAt, 2*time.Second)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTokenIssuer_RememberMeOverride(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret))
	mockRepo := new(mockTokenRepo)
	mockRepo.On("Create", mock.AnythingOfType("*model.TokenRecord")).Return(nil).Once()

	issuer := NewTokenIssuer(codec, mockRepo)
	issued, err := issuer.Issue(model.NewAccessClaims(1, model.RoleNurse), ExtendedAccessTTL)

	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), issued.ExpiresAt, 2*time.Second)
	mockRepo.AssertExpectations(t)
}

func TestTokenIssuer_RecordCarriesOwner(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret))

	t.Run("access token is owned by a principal id", func(t *testing.T) {
		mockRepo := new(mockTokenRepo)
		mockRepo.On("Create", mock.MatchedBy(func(rec *model.TokenRecord) bool {
			return rec.OwnerID != nil && *rec.OwnerID == 42 && rec.OwnerEmail == nil
		})).Return(nil).Once()

		issuer := NewTokenIssuer(codec, mockRepo)
		_, err := issuer.Issue(model.NewAccessClaims(42, model.RoleManager), 0)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invite token is owned by an email", func(t *testing.T) {
		mockRepo := new(mockTokenRepo)
		mockRepo.On("Create", mock.MatchedBy(func(rec *model.TokenRecord) bool {
			return rec.OwnerID == nil && rec.OwnerEmail != nil && *rec.OwnerEmail == "alice@co.com"
		})).Return(nil).Once()

		issuer := NewTokenIssuer(codec, mockRepo)
		_, err := issuer.Issue(model.NewInviteClaims("alice@co.com", model.RoleNurse), 0)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

// TestTokenIssuer_PersistFailureDiscardsToken ensures issuance is atomic
// from the caller's perspective: no record, no token.
func TestTokenIssuer_PersistFailureDiscardsToken(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret))
	mockRepo := new(mockTokenRepo)
	mockRepo.On("Create", mock.AnythingOfType("*model.TokenRecord")).Return(errors.New("database down")).Once()

	issuer := NewTokenIssuer(codec, mockRepo)
	issued, err := issuer.Issue(model.NewAccessClaims(1, model.RoleNurse), 0)

	assert.Error(t, err)
	assert.Nil(t, issued)
	mockRepo.AssertExpectations(t)
}
