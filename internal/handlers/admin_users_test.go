package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type fakeAdmins struct {
	byID  map[primitive.ObjectID]models.Admin
	users *fakeAccounts
}

func newFakeAdmins(users *fakeAccounts, admins ...models.Admin) *fakeAdmins {
	f := &fakeAdmins{byID: map[primitive.ObjectID]models.Admin{}, users: users}
	for _, a := range admins {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAdmins) ListAdmins(context.Context) ([]models.Admin, error) {
	out := make([]models.Admin, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAdmins) FindAdmin(_ context.Context, id primitive.ObjectID) (models.Admin, error) {
	a, ok := f.byID[id]
	if !ok {
		return models.Admin{}, store.ErrAdminNotFound
	}
	return a, nil
}

func (f *fakeAdmins) byEmail(email string) (models.Admin, bool) {
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return models.Admin{}, false
}

func (f *fakeAdmins) CreateAdmin(_ context.Context, admin models.Admin) (models.Admin, error) {
	if _, taken := f.byEmail(admin.Email); taken {
		return models.Admin{}, store.ErrEmailTaken
	}
	admin.ID = primitive.NewObjectID()
	f.byID[admin.ID] = admin
	return admin, nil
}

func (f *fakeAdmins) UpdateAdmin(_ context.Context, id primitive.ObjectID, patch store.AdminPatch) (models.Admin, error) {
	a, ok := f.byID[id]
	if !ok {
		return models.Admin{}, store.ErrAdminNotFound
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	if patch.IsAdmin != nil {
		a.IsAdmin = *patch.IsAdmin
	}
	f.byID[id] = a
	return a, nil
}

func (f *fakeAdmins) DeleteAdmin(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrAdminNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAdmins) PromoteByEmail(ctx context.Context, email string) (models.Admin, error) {
	if a, ok := f.byEmail(email); ok {
		a.IsAdmin = true
		f.byID[a.ID] = a
		return a, nil
	}
	u, err := f.users.FindUserByEmail(ctx, email)
	if err != nil {
		return models.Admin{}, store.ErrAccountNotFound
	}
	return f.CreateAdmin(ctx, models.Admin{Email: u.Email, PasswordHash: u.PasswordHash, IsAdmin: true})
}

var (
	ownerID = primitive.NewObjectID()
	owner   = models.Admin{ID: ownerID, Email: "owner@example.com", IsAdmin: true}
)

func adminUsersRouter(admins *fakeAdmins, users userLister) *gin.Engine {
	r := gin.New()
	g := r.Group("/admin/api", func(c *gin.Context) {
		c.Set(middleware.AdminEmailKey, owner.Email)
		c.Next()
	})
	g.GET("/admins", GetAdmins(admins))
	g.POST("/admins", CreateAdmin(admins))
	g.POST("/admins/promote", PromoteAdmin(admins))
	g.PUT("/admins/:id", UpdateAdmin(admins))
	g.DELETE("/admins/:id", DeleteAdmin(admins))
	g.GET("/users", GetUsers(users, admins))
	return r
}

func TestCreateAdmin(t *testing.T) {
	admins := newFakeAdmins(newFakeAccounts(), owner)
	r := adminUsersRouter(admins, newFakeAccounts())

	w := doJSON(t, r, http.MethodPost, "/admin/api/admins", "", gin.H{"email": "Staff@Example.com", "password": "staff-pass-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created, ok := admins.byEmail("staff@example.com")
	require.True(t, ok)
	assert.True(t, created.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("staff-pass-1")))

	w = doJSON(t, r, http.MethodPost, "/admin/api/admins", "", gin.H{"email": "staff@example.com", "password": "staff-pass-2"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateAdmin(t *testing.T) {
	staff := models.Admin{ID: primitive.NewObjectID(), Email: "staff@example.com", IsAdmin: true}
	admins := newFakeAdmins(newFakeAccounts(), owner, staff)
	r := adminUsersRouter(admins, newFakeAccounts())

	w := doJSON(t, r, http.MethodPut, "/admin/api/admins/"+staff.ID.Hex(), "", gin.H{"isAdmin": false, "email": "desk@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, admins.byID[staff.ID].IsAdmin)
	assert.Equal(t, "desk@example.com", admins.byID[staff.ID].Email)

	w = doJSON(t, r, http.MethodPut, "/admin/api/admins/"+ownerID.Hex(), "", gin.H{"isAdmin": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, admins.byID[ownerID].IsAdmin)

	w = doJSON(t, r, http.MethodPut, "/admin/api/admins/"+primitive.NewObjectID().Hex(), "", gin.H{"email": "x@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAdmin(t *testing.T) {
	staff := models.Admin{ID: primitive.NewObjectID(), Email: "staff@example.com", IsAdmin: true}
	admins := newFakeAdmins(newFakeAccounts(), owner, staff)
	r := adminUsersRouter(admins, newFakeAccounts())

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodDelete, "/admin/api/admins/"+ownerID.Hex(), "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodDelete, "/admin/api/admins/nope", "", nil).Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/admin/api/admins/"+staff.ID.Hex(), "", nil).Code)
	assert.NotContains(t, admins.byID, staff.ID)
	assert.Contains(t, admins.byID, ownerID)
}

func TestPromoteAdminFromCustomerAccount(t *testing.T) {
	accounts := newFakeAccounts()
	customer := seedUser(accounts)
	admins := newFakeAdmins(accounts, owner)
	r := adminUsersRouter(admins, accounts)

	w := doJSON(t, r, http.MethodPost, "/admin/api/admins/promote", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/admin/api/admins/promote", "", gin.H{"email": customer.Email})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	promoted, ok := admins.byEmail(customer.Email)
	require.True(t, ok)
	assert.True(t, promoted.IsAdmin)

	w = doJSON(t, r, http.MethodGet, "/admin/api/users", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"isAdmin"`
	}
	decodeBody(t, w, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, customer.Email, rows[0].Email)
	assert.True(t, rows[0].IsAdmin)
}

func TestPromoteAdminReenablesRevokedAdmin(t *testing.T) {
	revoked := models.Admin{ID: primitive.NewObjectID(), Email: "former@example.com", IsAdmin: false}
	admins := newFakeAdmins(newFakeAccounts(), owner, revoked)
	r := adminUsersRouter(admins, newFakeAccounts())

	w := doJSON(t, r, http.MethodPost, "/admin/api/admins/promote", "", gin.H{"email": "Former@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, admins.byID[revoked.ID].IsAdmin)
	assert.Len(t, admins.byID, 2)
}
