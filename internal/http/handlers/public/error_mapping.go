package public

import (
	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/payment/stripe"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedHandlerError

var checkoutErrorRules = []mappedHandlerError{
	{Target: service.ErrPaymentInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: service.ErrPaymentAmountMismatch, Code: response.CodeBadRequest, Key: "error.payment_amount_mismatch"},
	{Target: service.ErrAnnouncementNotFound, Code: response.CodeNotFound, Key: "error.announcement_not_found"},
	{Target: service.ErrPackageNotFound, Code: response.CodeNotFound, Key: "error.package_not_found"},
	{Target: service.ErrPromotionPackageNotFound, Code: response.CodeNotFound, Key: "error.promotion_not_found"},
	{Target: service.ErrPaymentGatewayUnavailable, Code: response.CodeUnavailable, Key: "error.payment_gateway_unavailable"},
}

var paymentCallbackErrorRules = []mappedHandlerError{
	{Target: stripe.ErrSignatureInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: stripe.ErrMetadataInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: stripe.ErrResponseInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: service.ErrPaymentInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: service.ErrAnnouncementNotFound, Code: response.CodeNotFound, Key: "error.announcement_not_found"},
	{Target: service.ErrPackageNotFound, Code: response.CodeNotFound, Key: "error.package_not_found"},
	{Target: service.ErrPromotionPackageNotFound, Code: response.CodeNotFound, Key: "error.promotion_not_found"},
	{Target: service.ErrPaymentGatewayUnavailable, Code: response.CodeUnavailable, Key: "error.payment_gateway_unavailable"},
}

func respondCheckoutError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.payment_create_failed")
}

func respondPaymentCallbackError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, paymentCallbackErrorRules, response.CodeInternal, "error.payment_callback_failed")
}
