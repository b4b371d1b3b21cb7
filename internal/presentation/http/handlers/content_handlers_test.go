package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// The update routes must reject payloads missing required fields before any
// write happens; a nil service guarantees the test fails loudly if a bad
// payload slips past validation.

func performUpdate(t *testing.T, register func(*gin.Engine), path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)

	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestClubUpdateRejectsMissingFields(t *testing.T) {
	h := NewClubHandlers(nil, nil)
	register := func(r *gin.Engine) { r.PUT("/clubs/:id", h.Update) }

	for name, body := range map[string]string{
		"empty body":    `{}`,
		"missing name":  `{"groupId":"north"}`,
		"missing group": `{"name":"Rovers"}`,
	} {
		recorder := performUpdate(t, register, "/clubs/c1", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, name)
	}
}

func TestPlayerUpdateRejectsMissingFields(t *testing.T) {
	h := NewPlayerHandlers(nil, nil)
	register := func(r *gin.Engine) { r.PUT("/players/:id", h.Update) }

	for name, body := range map[string]string{
		"empty body":   `{}`,
		"missing name": `{"clubId":"c1"}`,
		"missing club": `{"name":"Jo Keeper"}`,
	} {
		recorder := performUpdate(t, register, "/players/p1", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, name)
	}
}

func TestFixtureUpdateRejectsMissingFields(t *testing.T) {
	h := NewFixtureHandlers(nil, nil)
	register := func(r *gin.Engine) { r.PUT("/fixtures/:id", h.Update) }

	for name, body := range map[string]string{
		"empty body":    `{}`,
		"missing away":  `{"homeClubId":"c1","groupId":"north"}`,
		"missing group": `{"homeClubId":"c1","awayClubId":"c2"}`,
	} {
		recorder := performUpdate(t, register, "/fixtures/f1", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, name)
	}
}
