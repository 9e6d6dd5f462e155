package service_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

// longDataURI builds a data URI the size of a small real image, well past
// any VARCHAR(255) limit.
func longDataURI() string {
	payload := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 4096)))
	return "data:image/png;base64," + payload
}

func TestSetAvatarWithoutStorage(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewProfileService(db, nil)
	user := testhelpers.CreateUser(t, db, "alice", models.RoleUser)

	uri := longDataURI()
	url, err := svc.SetAvatar(context.Background(), user.ID, uri)
	require.NoError(t, err)
	assert.Equal(t, uri, url)

	stored, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, uri, stored.AvatarURL)
}

func TestSetAvatarRejectsMalformed(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewProfileService(db, nil)
	user := testhelpers.CreateUser(t, db, "alice", models.RoleUser)

	var verr *service.ValidationError
	_, err := svc.SetAvatar(context.Background(), user.ID, "not a data uri")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "avatar")
}

func TestClearAvatar(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewProfileService(db, nil)
	user := testhelpers.CreateUser(t, db, "alice", models.RoleUser)

	_, err := svc.SetAvatar(context.Background(), user.ID, longDataURI())
	require.NoError(t, err)
	require.NoError(t, svc.ClearAvatar(context.Background(), user.ID))

	var nferr *service.NotFoundError
	err = svc.ClearAvatar(context.Background(), user.ID)
	assert.ErrorAs(t, err, &nferr)
}
