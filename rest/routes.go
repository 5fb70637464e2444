package rest

import "net/url"

// Route constants for the storefront REST API. Paths are relative to the
// configured base URL.
const (
	RouteAuthLogin          = "/auth/token"
	RouteAuthRefresh        = "/auth/refresh"
	RouteAuthChangePassword = "/auth/change-password"
	RouteAuthResetPassword  = "/auth/reset-password"
	RouteAuthVerifyOTP      = "/auth/verify-otp"

	RouteUsers    = "/users"
	RouteMyInfo   = "/users/my-info"
	RouteStaff    = "/users/staff"

	RouteCategories       = "/categories"
	RouteCategoriesActive = "/categories/active"
	RouteCategoriesRoot   = "/categories/root"

	RouteProducts        = "/products"
	RouteProductsActive  = "/products/active"
	RouteProductsMine    = "/products/my-products"
	RouteProductsPending = "/products/pending"
	RouteProductsApprove = "/products/approve"

	RouteMediaUploadProfile = "/media/upload"
	RouteMediaUploadProduct = "/media/upload-product"

	RouteVouchers        = "/vouchers"
	RouteVouchersMine    = "/vouchers/my"
	RouteVouchersActive  = "/vouchers/active"
	RouteVouchersPending = "/vouchers/pending"

	RoutePromotions       = "/promotions"
	RoutePromotionsActive = "/promotions/active"

	RouteAddresses = "/addresses"

	RouteOrders         = "/orders"
	RouteOrdersMine     = "/orders/my-orders"
	RouteOrdersCheckout = "/orders/checkout"

	RouteNotificationsMine = "/notifications/my"

	RouteChatSend            = "/chat/send"
	RouteChatConversations   = "/chat/conversations"
	RouteChatUnreadCount     = "/chat/unread-count"
	RouteChatCustomerSupport = "/chat/customer-support"
)

// RouteUserDetail returns the detail path for a user.
func RouteUserDetail(userID string) string {
	return RouteUsers + "/" + url.PathEscape(userID)
}

// RouteCategoryDetail returns the detail path for a category.
func RouteCategoryDetail(categoryID string) string {
	return RouteCategories + "/" + url.PathEscape(categoryID)
}

// RouteSubCategories returns the subcategory listing path.
func RouteSubCategories(parentID string) string {
	return RouteCategories + "/" + url.PathEscape(parentID) + "/subcategories"
}

// RouteProductDetail returns the detail path for a product.
func RouteProductDetail(productID string) string {
	return RouteProducts + "/" + url.PathEscape(productID)
}

// RouteProductsByCategory returns the category-scoped product listing path.
func RouteProductsByCategory(categoryID string) string {
	return RouteProducts + "/category/" + url.PathEscape(categoryID)
}

// RouteProductSearch returns the keyword search path.
func RouteProductSearch(keyword string) string {
	return RouteProducts + "/search?keyword=" + url.QueryEscape(keyword)
}

// RouteVoucherDetail returns the detail path for a voucher.
func RouteVoucherDetail(voucherID string) string {
	return RouteVouchers + "/" + url.PathEscape(voucherID)
}

// RouteVouchersByStatus returns the status-scoped voucher listing path.
func RouteVouchersByStatus(status string) string {
	return RouteVouchers + "/status/" + url.PathEscape(status)
}

// RouteOrderDetail returns the detail path for an order.
func RouteOrderDetail(orderID string) string {
	return RouteOrders + "/" + url.PathEscape(orderID)
}

// RouteOrderConfirm returns the order confirmation path.
func RouteOrderConfirm(orderID string) string {
	return RouteOrderDetail(orderID) + "/confirm"
}

// RouteOrderCancel returns the order cancellation path.
func RouteOrderCancel(orderID string) string {
	return RouteOrderDetail(orderID) + "/cancel"
}

// RouteChatConversation returns the message listing path for one
// conversation partner.
func RouteChatConversation(partnerID string) string {
	return "/chat/conversation/" + url.PathEscape(partnerID)
}

// RouteChatMarkRead returns the read-marker path for one conversation.
func RouteChatMarkRead(partnerID string) string {
	return RouteChatConversation(partnerID) + "/read"
}
