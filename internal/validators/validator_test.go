package validators

import (
	"net/http"
	"testing"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	req := require.New(t)
	v := NewValidator()

	req.NoError(v.Validate(&models.CreateCommentRequest{Content: "nice"}))

	err := v.Validate(&models.CreateCommentRequest{})
	var httpErr *echo.HTTPError
	req.ErrorAs(err, &httpErr)
	req.Equal(http.StatusBadRequest, httpErr.Code)
}

func TestValidator_StructRejectsUnknownKind(t *testing.T) {
	req := require.New(t)
	v := NewValidator()

	n := &models.Notification{RecipientID: 1, SenderID: 2, Kind: "mention", Message: "x"}
	req.Error(v.Struct(n))

	n.Kind = models.KindLike
	req.NoError(v.Struct(n))
}
