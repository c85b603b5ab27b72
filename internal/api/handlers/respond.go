package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// respondDomainError 도메인 에러를 HTTP 응답으로 변환한다.
// ValidationError -> 400 (위반 필드 포함), NotFoundError -> 404, 그 외 -> 500.
func respondDomainError(c *gin.Context, err error) {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		middleware.ErrorResponseWithDetails(c, http.StatusBadRequest, types.ErrCodeValidationFailed,
			ve.Message, map[string]string{"field": ve.Field})
		return
	}

	var nfe *types.NotFoundError
	if errors.As(err, &nfe) {
		middleware.ErrorResponseWithCode(c, http.StatusNotFound, types.ErrCodeNotFound, nfe.Error())
		return
	}

	middleware.ErrorResponseWithCode(c, http.StatusInternalServerError, types.ErrCodeDatabaseError, err.Error())
}
