package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type loginPayload struct {
	Username string `json:"username" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst loginPayload
	return Bind(c, &dst)
}

func TestBind(t *testing.T) {
	Setup()

	assert.Nil(t, bindBody(t, `{"username":"reviewer","password":"pw"}`))

	fields := bindBody(t, `{"username":"   ","password":"pw"}`)
	assert.Equal(t, "username must not be blank", fields["username"])

	fields = bindBody(t, `{"username":"reviewer"}`)
	assert.Contains(t, fields["password"], "required")

	fields = bindBody(t, `{"username":`)
	assert.NotEmpty(t, fields["detail"])
}
