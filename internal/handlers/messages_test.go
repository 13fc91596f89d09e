package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type fakeBoard struct {
	byID       map[primitive.ObjectID]models.Message
	lastFilter store.MessageFilter
}

func newFakeBoard(msgs ...models.Message) *fakeBoard {
	b := &fakeBoard{byID: map[primitive.ObjectID]models.Message{}}
	for _, m := range msgs {
		b.byID[m.ID] = m
	}
	return b
}

func (b *fakeBoard) Insert(_ context.Context, msg models.Message) (models.Message, error) {
	msg.ID = primitive.NewObjectID()
	b.byID[msg.ID] = msg
	return msg, nil
}

func (b *fakeBoard) List(_ context.Context, filter store.MessageFilter) ([]models.Message, error) {
	b.lastFilter = filter
	out := make([]models.Message, 0, len(b.byID))
	for _, m := range b.byID {
		out = append(out, m)
	}
	return out, nil
}

func (b *fakeBoard) Update(_ context.Context, id primitive.ObjectID, next models.MessageStatus, response *string) (models.Message, error) {
	msg, ok := b.byID[id]
	if !ok {
		return models.Message{}, store.ErrMessageNotFound
	}
	if !msg.Status.CanMoveTo(next) {
		return models.Message{}, models.MessageTransitionError{From: msg.Status, To: next}
	}
	msg.Status = next
	if response != nil {
		msg.AdminResponse = *response
	}
	b.byID[id] = msg
	return msg, nil
}

func (b *fakeBoard) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := b.byID[id]; !ok {
		return store.ErrMessageNotFound
	}
	delete(b.byID, id)
	return nil
}

func messageRouter(board messageBoard) *gin.Engine {
	r := gin.New()
	r.POST("/messages", CreateMessage(board))
	r.GET("/admin/api/messages", GetMessages(board))
	r.PATCH("/admin/api/messages/:id", UpdateMessage(board))
	r.DELETE("/admin/api/messages/:id", DeleteMessage(board))
	return r
}

func TestCreateMessage(t *testing.T) {
	board := newFakeBoard()
	r := messageRouter(board)

	w := doJSON(t, r, http.MethodPost, "/messages", "", gin.H{
		"customerName":  "Jane Doe",
		"customerEmail": "Jane@Example.com",
		"subject":       "Lace colour",
		"message":       "Is the 13x4 lace transparent?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var msg models.Message
	decodeBody(t, w, &msg)
	assert.Equal(t, "jane@example.com", msg.CustomerEmail)
	assert.Equal(t, models.MessageUnread, msg.Status)
	assert.Len(t, board.byID, 1)

	w = doJSON(t, r, http.MethodPost, "/messages", "", gin.H{
		"customerName":  "system",
		"customerEmail": "x@example.com",
		"subject":       "s",
		"message":       "m",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesFilters(t *testing.T) {
	board := newFakeBoard()
	r := messageRouter(board)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/admin/api/messages?status=read&system=false", "", nil).Code)
	assert.Equal(t, models.MessageRead, board.lastFilter.Status)
	require.NotNil(t, board.lastFilter.System)
	assert.False(t, *board.lastFilter.System)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/admin/api/messages?status=archived", "", nil).Code)
}

func TestUpdateMessageMovesForward(t *testing.T) {
	id := primitive.NewObjectID()
	board := newFakeBoard(models.Message{ID: id, Status: models.MessageUnread})
	r := messageRouter(board)
	path := "/admin/api/messages/" + id.Hex()

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, path, "", gin.H{"status": "read"}).Code)

	w := doJSON(t, r, http.MethodPatch, path, "", gin.H{"status": "responded", "adminResponse": "Yes, HD lace."})
	require.Equal(t, http.StatusOK, w.Code)
	var msg models.Message
	decodeBody(t, w, &msg)
	assert.Equal(t, models.MessageResponded, msg.Status)
	assert.Equal(t, "Yes, HD lace.", msg.AdminResponse)

	w = doJSON(t, r, http.MethodPatch, path, "", gin.H{"status": "responded", "adminResponse": "Yes, HD lace in stock."})
	assert.Equal(t, http.StatusOK, w.Code, "editing a response keeps the status")
}

func TestUpdateMessageRejectsBackwardMove(t *testing.T) {
	id := primitive.NewObjectID()
	board := newFakeBoard(models.Message{ID: id, Status: models.MessageResponded})
	r := messageRouter(board)

	w := doJSON(t, r, http.MethodPatch, "/admin/api/messages/"+id.Hex(), "", gin.H{"status": "unread"})
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "responded", body.From)
	assert.Equal(t, "unread", body.To)
	assert.Equal(t, models.MessageResponded, board.byID[id].Status)
}

func TestUpdateAndDeleteMessageErrors(t *testing.T) {
	r := messageRouter(newFakeBoard())
	missing := "/admin/api/messages/" + primitive.NewObjectID().Hex()

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPatch, "/admin/api/messages/nope", "", gin.H{"status": "read"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPatch, missing, "", gin.H{"status": "archived"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPatch, missing, "", gin.H{"status": "read"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodDelete, missing, "", nil).Code)
}
