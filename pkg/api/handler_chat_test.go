package api

import (
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
)

func TestWriteSSEData(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	c := e.NewContext(req, rec)
	w := c.Response()

	writeSSEData(w, map[string]string{"content": "hello"})

	assert.Equal(t, "data: {\"content\":\"hello\"}\n\n", rec.Body.String())
}

func TestWriteSSEDone(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	c := e.NewContext(req, rec)
	w := c.Response()

	writeSSEDone(w)

	assert.Equal(t, "data: [DONE]\n\n", rec.Body.String())
}
