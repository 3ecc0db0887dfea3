package repositories

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfeedhq/feedengine/internal/models"
)

func TestUserIDsAfterPagesThePopulation(t *testing.T) {
	repo := NewPostgresUserRepository(newTestDB(t))

	var all []uint
	for i := 0; i < 5; i++ {
		user := &models.User{Name: fmt.Sprintf("user-%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
		require.NoError(t, repo.CreateUser(user))
		all = append(all, user.ID)
	}

	var paged []uint
	var afterID uint
	for {
		ids, err := repo.UserIDsAfter(afterID, 2)
		require.NoError(t, err)
		if len(ids) == 0 {
			break
		}
		paged = append(paged, ids...)
		afterID = ids[len(ids)-1]
	}
	assert.Equal(t, all, paged)

	count, err := repo.CountUsers()
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}
