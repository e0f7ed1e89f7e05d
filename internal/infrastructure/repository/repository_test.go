package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/persistence/models"
	"adapta/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.IdentityModel{},
		&models.EntitlementStateModel{},
		&models.InviteRecordModel{},
		&models.BindingModel{},
		&models.SecureRecordModel{},
	)
	require.NoError(t, err)

	return db
}

func createAccount(t *testing.T, subject string) *identity.Identity {
	ident, err := identity.NewAccount(subject)
	require.NoError(t, err)
	return ident
}

func TestIdentityRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdentityRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("round trip with profile and authorization", func(t *testing.T) {
		ident := createAccount(t, "auth0|user42")
		name := "Alice"
		email := "alice@example.com"
		ident.ApplyProfile(identity.ProfilePatch{DisplayName: &name, Email: &email})
		require.NoError(t, ident.SetAuthorization(
			[]string{"vip"}, []string{"adaptation:advanced"}, identity.VIPSilver,
		))

		require.NoError(t, repo.Create(ctx, ident))

		found, err := repo.GetByID(ctx, "auth0|user42")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Alice", found.DisplayName())
		assert.Equal(t, "alice@example.com", found.Email())
		assert.Equal(t, []string{"vip"}, found.Roles())
		assert.Equal(t, []string{"adaptation:advanced"}, found.Permissions())
		assert.Equal(t, identity.VIPSilver, found.VIPLevel())
		assert.False(t, found.IsAnonymous())
	})

	t.Run("unknown subject returns nil without error", func(t *testing.T) {
		found, err := repo.GetByID(ctx, "auth0|nobody")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate subject fails", func(t *testing.T) {
		err := repo.Create(ctx, createAccount(t, "auth0|user42"))
		assert.Error(t, err)
	})

	t.Run("update persists profile changes", func(t *testing.T) {
		found, err := repo.GetByID(ctx, "auth0|user42")
		require.NoError(t, err)

		name := "Alicia"
		found.ApplyProfile(identity.ProfilePatch{DisplayName: &name})
		require.NoError(t, repo.Update(ctx, found))

		again, err := repo.GetByID(ctx, "auth0|user42")
		require.NoError(t, err)
		assert.Equal(t, "Alicia", again.DisplayName())
	})
}

func TestEntitlementRepository_SaveAndIncrement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, logger.NewLogger())
	ctx := context.Background()

	state, err := entitlement.NewState("anon_abc123", 20)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, state))

	t.Run("increment is applied in storage and returns the row", func(t *testing.T) {
		updated, err := repo.IncrementUsage(ctx, "anon_abc123")
		require.NoError(t, err)
		assert.Equal(t, 1, updated.AdaptationUsed())

		stored, err := repo.GetByIdentityID(ctx, "anon_abc123")
		require.NoError(t, err)
		assert.Equal(t, 1, stored.AdaptationUsed())
	})

	t.Run("increment on missing row errors", func(t *testing.T) {
		_, err := repo.IncrementUsage(ctx, "anon_missing")
		assert.Error(t, err)
	})

	t.Run("save guarded by version", func(t *testing.T) {
		first, err := repo.GetByIdentityID(ctx, "anon_abc123")
		require.NoError(t, err)
		second, err := repo.GetByIdentityID(ctx, "anon_abc123")
		require.NoError(t, err)

		require.NoError(t, first.Grant(10))
		require.NoError(t, repo.Save(ctx, first))

		// The second copy was loaded before the save and is now stale.
		require.NoError(t, second.Grant(10))
		assert.Error(t, repo.Save(ctx, second))
	})

	t.Run("missing state reads as nil", func(t *testing.T) {
		stored, err := repo.GetByIdentityID(ctx, "anon_missing")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func TestBindingRepository_ConsumedMarker(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBindingRepository(db, logger.NewLogger())
	ctx := context.Background()

	binding, err := identity.NewBinding("anon_abc123", "auth0|user42")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, binding))

	found, err := repo.GetByAnonymousID(ctx, "anon_abc123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "auth0|user42", found.AccountID())

	none, err := repo.GetByAnonymousID(ctx, "anon_other")
	require.NoError(t, err)
	assert.Nil(t, none)

	dup, err := identity.NewBinding("anon_abc123", "auth0|other99")
	require.NoError(t, err)
	assert.Error(t, repo.Create(ctx, dup))
}

func TestInviteRecordRepository_Counters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRecordRepository(db, logger.NewLogger())
	ctx := context.Background()

	record, err := identity.NewInviteRecord("anon_owner1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, record))

	second, err := identity.NewInviteRecord("anon_owner1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	t.Run("lookup by code and owner", func(t *testing.T) {
		found, err := repo.GetByCode(ctx, record.Code())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "anon_owner1", found.OwnerID())

		owned, err := repo.GetByOwnerID(ctx, "anon_owner1")
		require.NoError(t, err)
		assert.Len(t, owned, 2)
	})

	t.Run("unknown code returns nil", func(t *testing.T) {
		found, err := repo.GetByCode(ctx, "inv_unknown")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("update persists click counters", func(t *testing.T) {
		record.RecordClick()
		record.RecordClick()
		require.NoError(t, repo.Update(ctx, record))

		found, err := repo.GetByCode(ctx, record.Code())
		require.NoError(t, err)
		assert.Equal(t, 2, found.Clicks())
	})
}

func TestSecureRecordRepository_Backend(t *testing.T) {
	db := setupTestDB(t)
	backend := NewSecureRecordRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("missing key reads as empty", func(t *testing.T) {
		envelope, err := backend.Get(ctx, "session", "current")
		require.NoError(t, err)
		assert.Empty(t, envelope)
	})

	t.Run("set then get then overwrite", func(t *testing.T) {
		require.NoError(t, backend.Set(ctx, "session", "current", "envelope-v1"))

		envelope, err := backend.Get(ctx, "session", "current")
		require.NoError(t, err)
		assert.Equal(t, "envelope-v1", envelope)

		require.NoError(t, backend.Set(ctx, "session", "current", "envelope-v2"))
		envelope, err = backend.Get(ctx, "session", "current")
		require.NoError(t, err)
		assert.Equal(t, "envelope-v2", envelope)
	})

	t.Run("namespaces do not collide", func(t *testing.T) {
		require.NoError(t, backend.Set(ctx, "anonymous", "current", "anon-envelope"))

		envelope, err := backend.Get(ctx, "session", "current")
		require.NoError(t, err)
		assert.Equal(t, "envelope-v2", envelope)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, "session", "current"))

		envelope, err := backend.Get(ctx, "session", "current")
		require.NoError(t, err)
		assert.Empty(t, envelope)
	})
}
