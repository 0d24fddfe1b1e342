package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/commerce"
	"storefront/internal/service/design"
	"storefront/internal/service/newsletter"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

var errBadRequest = errors.New("bad request")

// writeError maps the error taxonomy to an HTTP response. Remote details are
// not exposed to clients.
func writeError(c *gin.Context, err error) {
	var verr *design.ValidationError
	status, resp := http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrVariantRequired):
		status, resp = http.StatusUnprocessableEntity, errorResponse{Error: "variant_required", Message: "select product options first"}
	case errors.Is(err, domain.ErrProductNotFound):
		status, resp = http.StatusNotFound, errorResponse{Error: "product_not_found", Message: "product not found"}
	case errors.Is(err, domain.ErrNotFound):
		status, resp = http.StatusNotFound, errorResponse{Error: "not_found", Message: "not found"}
	case errors.Is(err, domain.ErrSubmissionFailed):
		status, resp = http.StatusBadGateway, errorResponse{Error: "submission_failed", Message: "submission failed, please try again", Retry: true}
	case errors.Is(err, domain.ErrRemoteUnavailable):
		status, resp = http.StatusBadGateway, errorResponse{Error: "remote_unavailable", Message: "store temporarily unavailable"}
	case errors.Is(err, domain.ErrAlreadyExists):
		status, resp = http.StatusConflict, errorResponse{Error: "already_exists", Message: "already exists"}
	case errors.As(err, &verr):
		status, resp = http.StatusBadRequest, errorResponse{Error: "invalid_" + verr.Field, Message: verr.Error()}
	case errors.Is(err, newsletter.ErrInvalidEmail):
		status, resp = http.StatusBadRequest, errorResponse{Error: "invalid_email", Message: "invalid email address"}
	case errors.Is(err, commerce.ErrProductIDRequired), errors.Is(err, errBadRequest):
		status, resp = http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}
