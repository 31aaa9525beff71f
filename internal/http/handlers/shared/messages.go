package shared

// messages 错误消息目录，按 key 查找
var messages = map[string]string{
	"error.bad_request":                 "Invalid request parameters",
	"error.unauthorized":                "Unauthorized",
	"error.forbidden":                   "Permission denied",
	"error.not_found":                   "Resource not found",
	"error.internal":                    "Internal server error",
	"error.jwt_secret_missing":          "Authentication is not configured",
	"error.auth_header_missing":         "Missing Authorization header",
	"error.auth_header_invalid":         "Malformed Authorization header",
	"error.token_invalid":               "Invalid or expired token",
	"error.token_revoked":               "Token has been revoked",
	"error.user_disabled":               "Account is disabled",
	"error.user_id_invalid":             "Invalid user id",
	"error.user_id_type_invalid":        "Unexpected user id type",
	"error.admin_id_invalid":            "Invalid admin id",
	"error.admin_id_type_invalid":       "Unexpected admin id type",
	"error.login_invalid":               "Invalid username or password",
	"error.login_failed":                "Login failed",
	"error.password_invalid":            "Current password is incorrect",
	"error.password_weak":               "Password does not meet the policy",
	"error.password_change_failed":      "Failed to change password",
	"error.rate_limited":                "Too many requests, retry later",
	"error.rate_limit_unavailable":      "Rate limiter unavailable",
	"error.announcement_not_found":      "Announcement not found",
	"error.announcement_fetch_failed":   "Failed to load announcements",
	"error.package_not_found":           "Announcement package not found",
	"error.promotion_not_found":         "Promotion package not found",
	"error.package_invalid":             "Package data is invalid",
	"error.package_in_use":              "Package is referenced by payments",
	"error.package_fetch_failed":        "Failed to load packages",
	"error.package_save_failed":         "Failed to save package",
	"error.package_delete_failed":       "Failed to delete package",
	"error.quote_failed":                "Failed to quote prices",
	"error.discount_not_found":          "Discount not found",
	"error.discount_invalid":            "Discount data is invalid",
	"error.discount_code_exists":        "Discount code already exists",
	"error.discount_fetch_failed":       "Failed to load discounts",
	"error.discount_save_failed":        "Failed to save discount",
	"error.discount_delete_failed":      "Failed to delete discount",
	"error.payment_invalid":             "Payment data is invalid",
	"error.payment_amount_mismatch":     "Payment amount does not match current prices",
	"error.payment_gateway_unavailable": "Payment gateway unavailable",
	"error.payment_create_failed":       "Failed to start checkout",
	"error.payment_fetch_failed":        "Failed to load payments",
	"error.payment_callback_failed":     "Failed to process payment notification",
	"error.queue_unavailable":           "Task queue unavailable",
	"error.sweep_failed":                "Sweep failed",
	"error.authz_fetch_failed":          "Failed to load permissions",
	"error.authz_update_failed":         "Failed to update permissions",
}

// Message 根据 key 返回错误消息，未收录时原样返回 key
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
