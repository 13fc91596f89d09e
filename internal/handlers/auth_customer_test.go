package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

const accountSecret = "account-secret"

// fakeAccounts keeps users and refresh tokens in memory.
type fakeAccounts struct {
	users  map[primitive.ObjectID]models.User
	tokens map[primitive.ObjectID]models.RefreshToken
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		users:  map[primitive.ObjectID]models.User{},
		tokens: map[primitive.ObjectID]models.RefreshToken{},
	}
}

func (f *fakeAccounts) CreateUser(_ context.Context, user models.User) (models.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.User{}, store.ErrEmailTaken
		}
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeAccounts) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}

func (f *fakeAccounts) FindUserByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeAccounts) ListUsers(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, id primitive.ObjectID, displayName, phone string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	u.DisplayName, u.Phone = displayName, phone
	f.users[id] = u
	return u, nil
}

func (f *fakeAccounts) TouchSignIn(_ context.Context, id primitive.ObjectID, at time.Time) error {
	u := f.users[id]
	u.LastSignInAt = &at
	f.users[id] = u
	return nil
}

func (f *fakeAccounts) SaveRefreshToken(_ context.Context, token models.RefreshToken) (primitive.ObjectID, error) {
	token.ID = primitive.NewObjectID()
	f.tokens[token.ID] = token
	return token.ID, nil
}

func (f *fakeAccounts) FindRefreshToken(_ context.Context, hash string) (models.RefreshToken, error) {
	for _, t := range f.tokens {
		if t.TokenHash == hash && !t.Revoked {
			return t, nil
		}
	}
	return models.RefreshToken{}, store.ErrTokenNotFound
}

func (f *fakeAccounts) RevokeRefreshToken(_ context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	t := f.tokens[id]
	t.Revoked = true
	t.ReplacedByToken = replacedBy
	f.tokens[id] = t
	return nil
}

func (f *fakeAccounts) RevokeRefreshTokenByHash(ctx context.Context, hash string) (bool, error) {
	t, err := f.FindRefreshToken(ctx, hash)
	if err != nil {
		return false, nil
	}
	return true, f.RevokeRefreshToken(ctx, t.ID, nil)
}

func accountRouter(accounts *fakeAccounts) *gin.Engine {
	r := gin.New()
	r.POST("/account/register", Register(accounts, accountSecret, time.Hour, 24*time.Hour))
	r.POST("/account/login", Login(accounts, accountSecret, time.Hour, 24*time.Hour))
	r.POST("/account/refresh", Refresh(accounts, accountSecret, time.Hour, 24*time.Hour))
	r.POST("/account/logout", Logout(accounts))
	return r
}

type tokenBody struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         models.User `json:"user"`
}

func registerJane(t *testing.T, r *gin.Engine) tokenBody {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/account/register", "", gin.H{
		"displayName": "Jane Doe",
		"email":       "Jane@Example.com",
		"password":    "s3cret-pass",
		"phone":       "0712345678",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body tokenBody
	decodeBody(t, w, &body)
	return body
}

func TestRegisterIssuesCustomerTokens(t *testing.T) {
	accounts := newFakeAccounts()
	body := registerJane(t, accountRouter(accounts))

	assert.Equal(t, "jane@example.com", body.User.Email)
	assert.Equal(t, "Jane Doe", body.User.DisplayName)
	assert.Equal(t, int64(3600), body.ExpiresIn)
	assert.NotEmpty(t, body.RefreshToken)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(body.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(accountSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, middleware.CustomerRole, claims["role"])
	assert.Equal(t, body.User.ID.Hex(), claims["sub"])

	require.Len(t, accounts.tokens, 1)
	for _, tok := range accounts.tokens {
		assert.Equal(t, hashToken(body.RefreshToken), tok.TokenHash, "only the hash is stored")
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	r := accountRouter(newFakeAccounts())
	registerJane(t, r)

	w := doJSON(t, r, http.MethodPost, "/account/register", "", gin.H{
		"displayName": "Jane Again", "email": "jane@example.com", "password": "another-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/account/register", "", gin.H{
		"displayName": "Short", "email": "short@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	accounts := newFakeAccounts()
	r := accountRouter(accounts)
	registered := registerJane(t, r)

	w := doJSON(t, r, http.MethodPost, "/account/login", "", gin.H{"email": "jane@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/account/login", "", gin.H{"email": "nobody@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/account/login", "", gin.H{"email": "JANE@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body tokenBody
	decodeBody(t, w, &body)
	assert.Equal(t, registered.User.ID, body.User.ID)
	assert.NotNil(t, accounts.users[registered.User.ID].LastSignInAt)
}

func TestRefreshRotatesToken(t *testing.T) {
	accounts := newFakeAccounts()
	r := accountRouter(accounts)
	first := registerJane(t, r)

	w := doJSON(t, r, http.MethodPost, "/account/refresh", "", gin.H{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second tokenBody
	decodeBody(t, w, &second)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	w = doJSON(t, r, http.MethodPost, "/account/refresh", "", gin.H{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a rotated token cannot be reused")

	for _, tok := range accounts.tokens {
		if tok.TokenHash == hashToken(first.RefreshToken) {
			require.NotNil(t, tok.ReplacedByToken)
		}
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	accounts := newFakeAccounts()
	r := accountRouter(accounts)
	first := registerJane(t, r)

	for id, tok := range accounts.tokens {
		tok.ExpiresAt = time.Now().Add(-time.Minute)
		accounts.tokens[id] = tok
	}

	w := doJSON(t, r, http.MethodPost, "/account/refresh", "", gin.H{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	for _, tok := range accounts.tokens {
		assert.True(t, tok.Revoked)
	}
}

func TestLogout(t *testing.T) {
	r := accountRouter(newFakeAccounts())
	first := registerJane(t, r)

	w := doJSON(t, r, http.MethodPost, "/account/logout", "", gin.H{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/account/logout", "", gin.H{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
