package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpost/models"
)

func staticLookup(users ...*models.User) UserLookupFunc {
	return func(_ context.Context, email string) (*models.User, error) {
		for _, u := range users {
			if u.Email == email {
				return u, nil
			}
		}
		return nil, nil
	}
}

func TestResolveRoundTrip(t *testing.T) {
	codec := newTestCodec(t, "test-secret", clockAt(fixedNow))
	ann := &models.User{ID: 7, Email: "ann@example.com", IsActive: true}
	resolver := NewPrincipalResolver(codec, staticLookup(ann))

	token, err := codec.Issue(ann.Email, nil, 0)
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
}

func TestResolveNormalizesSubject(t *testing.T) {
	codec := newTestCodec(t, "test-secret", clockAt(fixedNow))
	ann := &models.User{ID: 7, Email: "ann@example.com", IsActive: true}

	token, err := codec.Issue("Ann@Example.com", nil, 0)
	require.NoError(t, err)

	got, err := NewPrincipalResolver(codec, staticLookup(ann)).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
}

func TestResolveUnknownOrInactiveUser(t *testing.T) {
	codec := newTestCodec(t, "test-secret", clockAt(fixedNow))
	inactive := &models.User{ID: 3, Email: "gone@example.com", IsActive: false}
	resolver := NewPrincipalResolver(codec, staticLookup(inactive))

	for _, email := range []string{"nobody@example.com", "gone@example.com"} {
		token, err := codec.Issue(email, nil, 0)
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUserNotFound, email)
		assert.True(t, IsCredentialError(err))
	}
}

func TestResolveExpiredToken(t *testing.T) {
	ann := &models.User{ID: 7, Email: "ann@example.com", IsActive: true}
	token, err := newTestCodec(t, "test-secret", clockAt(fixedNow)).Issue(ann.Email, nil, time.Minute)
	require.NoError(t, err)

	later := newTestCodec(t, "test-secret", clockAt(fixedNow.Add(31*time.Minute)))
	_, err = NewPrincipalResolver(later, staticLookup(ann)).Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, "expired", FailureReason(err))
}

func TestResolveForeignKey(t *testing.T) {
	ann := &models.User{ID: 7, Email: "ann@example.com", IsActive: true}
	token, err := newTestCodec(t, "other-secret", clockAt(fixedNow)).Issue(ann.Email, nil, 0)
	require.NoError(t, err)

	codec := newTestCodec(t, "test-secret", clockAt(fixedNow))
	_, err = NewPrincipalResolver(codec, staticLookup(ann)).Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestResolveStorageErrorIsNotCredentialError(t *testing.T) {
	codec := newTestCodec(t, "test-secret", clockAt(fixedNow))
	boom := errors.New("connection refused")
	resolver := NewPrincipalResolver(codec, UserLookupFunc(func(context.Context, string) (*models.User, error) {
		return nil, boom
	}))

	token, err := codec.Issue("ann@example.com", nil, 0)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsCredentialError(err))
	assert.Equal(t, "storage", FailureReason(err))
}
