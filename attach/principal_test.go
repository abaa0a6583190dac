package attach_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tether/attach"
	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/memstore"
	"github.com/jacentio/tether/service"
	"github.com/jacentio/tether/user"
	"github.com/jacentio/tether/validate"
)

type services struct {
	principals *attach.Principal[*user.PrincipalEntity]
	authTypes  *service.Service[*user.AuthTypeEntity]
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := memstore.New()
	return &services{
		principals: user.NewPrincipalService(db.Collection(user.CollectionPrincipals), nil),
		authTypes:  user.NewAuthTypeService(db.Collection(user.CollectionAuthTypes), nil),
	}
}

func (s *services) join(ctx context.Context, f docstore.Filter) *attach.JoinCursor[*user.PrincipalEntity, *user.AuthTypeEntity] {
	return attach.FindWithPrincipal[*user.PrincipalEntity, *user.AuthTypeEntity](ctx, s.principals, s.authTypes, f)
}

func newPrincipalEntity(principalID string) *user.PrincipalEntity {
	e := &user.PrincipalEntity{}
	e.SetPrincipalID(principalID)
	return e
}

func docOf(e *user.PrincipalEntity) docstore.Document {
	return user.PrincipalSchema.ToDocument(e)
}

// --- Query Tests ---

func TestFilterByPrincipalID(t *testing.T) {
	s := newServices(t)
	principalID := uuid.NewString()

	f := s.principals.FilterByPrincipalID(principalID)
	assert.True(t, docstore.Eq(attach.FieldNamePrincipalID, principalID).Equal(f))
	assert.Equal(t, "principalId", attach.FieldNamePrincipalID)
}

func TestCountByPrincipalID(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	principalID := uuid.NewString()

	n, err := s.principals.CountByPrincipalID(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	saved, err := s.principals.Service().Save(ctx, newPrincipalEntity(principalID), nil)
	require.NoError(t, err)
	require.NotNil(t, saved)

	n, err = s.principals.CountByPrincipalID(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFindByPrincipalID(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	principalID := uuid.NewString()

	_, ok, err := s.principals.FindByPrincipalID(ctx, principalID).First(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	e := newPrincipalEntity(principalID)
	_, err = s.principals.Service().Save(ctx, e, nil)
	require.NoError(t, err)

	found, ok, err := s.principals.FindByPrincipalID(ctx, principalID).First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, docOf(e), docOf(found))
}

func TestDeleteByPrincipalID(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	principalID := uuid.NewString()

	res, err := s.principals.DeleteByPrincipalID(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.DeletedCount)

	e := newPrincipalEntity(principalID)
	_, err = s.principals.Service().Save(ctx, e, nil)
	require.NoError(t, err)

	res, err = s.principals.DeleteByPrincipalID(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)

	_, ok, err := s.principals.Service().FindByID(ctx, e.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteByPrincipalID_RemovesAllMatches(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	principalID := uuid.NewString()
	other := newPrincipalEntity(uuid.NewString())

	for i := 0; i < 3; i++ {
		_, err := s.principals.Service().Save(ctx, newPrincipalEntity(principalID), nil)
		require.NoError(t, err)
	}
	_, err := s.principals.Service().Save(ctx, other, nil)
	require.NoError(t, err)

	res, err := s.principals.DeleteByPrincipalID(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.DeletedCount)

	_, ok, err := s.principals.Service().FindByID(ctx, other.ID())
	require.NoError(t, err)
	assert.True(t, ok)
}

// --- Join Tests ---

func TestFindWithPrincipal(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, ok, err := s.join(ctx, docstore.All()).First(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	principal := &user.AuthTypeEntity{}
	principal.SetSource(user.MiniProgram)
	saved, err := s.authTypes.Save(ctx, principal, nil)
	require.NoError(t, err)
	require.NotNil(t, saved)

	dangling := newPrincipalEntity(uuid.NewString())
	_, err = s.principals.Service().Save(ctx, dangling, nil)
	require.NoError(t, err)

	match, ok, err := s.join(ctx, docstore.ID(dangling.ID())).First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, docOf(dangling), docOf(match.Entity))
	assert.False(t, match.Found)
	assert.Nil(t, match.Principal)

	attached := newPrincipalEntity(principal.ID())
	_, err = s.principals.Service().Save(ctx, attached, nil)
	require.NoError(t, err)

	match, ok, err = s.join(ctx, docstore.ID(attached.ID())).First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, docOf(attached), docOf(match.Entity))
	require.True(t, match.Found)
	assert.Equal(t, user.AuthTypeSchema.ToDocument(principal), user.AuthTypeSchema.ToDocument(match.Principal))
}

func TestFindWithPrincipal_All(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	principal := &user.AuthTypeEntity{}
	principal.SetSource(user.Password)
	_, err := s.authTypes.Save(ctx, principal, nil)
	require.NoError(t, err)

	for _, id := range []string{principal.ID(), uuid.NewString(), principal.ID()} {
		_, err := s.principals.Service().Save(ctx, newPrincipalEntity(id), nil)
		require.NoError(t, err)
	}

	pairs, err := s.join(ctx, docstore.All()).All(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, []bool{true, false, true}, []bool{pairs[0].Found, pairs[1].Found, pairs[2].Found})
}

// --- Validation Tests ---

func TestPrincipalIDValidation_NotSet(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	v := validate.New()
	saved, err := s.principals.Service().Save(ctx, &user.PrincipalEntity{}, v)
	require.NoError(t, err)
	assert.Nil(t, saved)

	assert.True(t, v.HasErrors())
	assert.True(t, v.HasFieldErrors())
	assert.Equal(t, []string{attach.MessagePrincipalNotSet}, v.FieldError(attach.FieldNamePrincipalID))
	assert.Equal(t, "主体未设置", attach.MessagePrincipalNotSet)
	assert.Len(t, v.FieldErrors(), 1)
}

func TestPrincipalIDValidation_Change(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	original := uuid.NewString()

	e := newPrincipalEntity(original)
	v := validate.New()
	saved, err := s.principals.Service().Save(ctx, e, v)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, v.HasErrors())

	v = validate.New()
	saved, err = s.principals.Service().Save(ctx, e, v)
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.False(t, v.HasErrors())

	e.SetPrincipalID(uuid.NewString())
	v = validate.New()
	saved, err = s.principals.Service().Save(ctx, e, v)
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.True(t, v.HasFieldErrors())
	assert.Equal(t, []string{attach.MessagePrincipalChanged}, v.FieldError(attach.FieldNamePrincipalID))
	assert.Equal(t, "主体不可更改", attach.MessagePrincipalChanged)

	stored, ok, err := s.principals.Service().FindByID(ctx, e.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original, stored.PrincipalID())
}

func TestPrincipalIDValidation_ClearedOnPersisted(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	e := newPrincipalEntity(uuid.NewString())
	_, err := s.principals.Service().Save(ctx, e, nil)
	require.NoError(t, err)

	e.SetPrincipalID("")
	v := validate.New()
	saved, err := s.principals.Service().Save(ctx, e, v)
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, []string{attach.MessagePrincipalChanged}, v.FieldError(attach.FieldNamePrincipalID))
}

func TestPrincipalIDValidation_PresetUnknownID(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	e := &user.PrincipalEntity{}
	e.SetID(uuid.NewString())
	v := validate.New()
	saved, err := s.principals.Service().Save(ctx, e, v)
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, []string{attach.MessagePrincipalNotSet}, v.FieldError(attach.FieldNamePrincipalID))
}
