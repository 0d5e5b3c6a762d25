package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithID(t *testing.T, inbound string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/bookings", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return seen, w
}

func TestGeneratesIDWhenAbsent(t *testing.T) {
	seen, w := serveWithID(t, "")

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestReusesWellFormedInboundID(t *testing.T) {
	seen, w := serveWithID(t, "dash-req-42")

	assert.Equal(t, "dash-req-42", seen)
	assert.Equal(t, "dash-req-42", w.Header().Get("X-Request-ID"))
}

func TestReplacesMalformedInboundID(t *testing.T) {
	seen, _ := serveWithID(t, "bad id\n<script>")
	assert.NotEqual(t, "bad id\n<script>", seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)

	long, _ := serveWithID(t, strings.Repeat("a", 65))
	assert.NotEqual(t, 65, len(long))
}
