package public

import (
	"errors"

	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var trackingErrorRules = []mappedHandlerError{
	{target: service.ErrAffiliateNotOpened, code: response.CodeNotFound, key: "error.affiliate_not_found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.affiliate_not_found"},
	{target: service.ErrAffiliateDisabled, code: response.CodeBadRequest, key: "error.affiliate_disabled"},
	{target: service.ErrAffiliateEarningsInvalid, code: response.CodeBadRequest, key: "error.earnings_invalid"},
}

func respondTrackingError(c *gin.Context, err error) {
	respondWithMappedError(c, err, trackingErrorRules, response.CodeInternal, "error.save_failed")
}
