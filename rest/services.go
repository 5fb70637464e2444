package rest

import (
	"context"
	"fmt"
	"net/http"

	storefront "github.com/lumina-metro/storefront-go"
)

// AuthService wraps the authentication endpoints.
type AuthService struct {
	exec storefront.Requester
}

// NewAuthService creates an AuthService over the given executor.
func NewAuthService(exec storefront.Requester) *AuthService {
	return &AuthService{exec: exec}
}

// Login exchanges credentials for a bearer token. On success the token is
// extracted from the response envelope; the full result is returned either
// way so callers can read backend error codes.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, storefront.Result) {
	res := s.exec.Do(ctx, RouteAuthLogin, storefront.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"username": username, "password": password},
	})
	if !res.OK {
		return "", res
	}
	token := ""
	if m, ok := ExtractResult(res.Body).(map[string]any); ok {
		token, _ = m["token"].(string)
	}
	return token, res
}

// RefreshToken exchanges current for a fresh token through the public
// refresh endpoint. SkipAuthCheck keeps a 401 here from re-entering the
// refresh cycle. Persistence of rotated tokens is the refresh
// coordinator's concern; this wrapper only performs the exchange.
func (s *AuthService) RefreshToken(ctx context.Context, current string) (string, storefront.Result) {
	if current == "" {
		return "", storefront.Result{Err: fmt.Errorf("rest: no token available to refresh")}
	}
	res := s.exec.Do(ctx, RouteAuthRefresh, storefront.RequestOptions{
		Method:        http.MethodPost,
		Body:          map[string]string{"token": current},
		SkipAuthCheck: true,
	})
	if !res.OK {
		return "", res
	}
	token := ""
	if m, ok := ExtractResult(res.Body).(map[string]any); ok {
		token, _ = m["token"].(string)
	}
	return token, res
}

// Register creates a new customer account.
func (s *AuthService) Register(ctx context.Context, user map[string]any) storefront.Result {
	return s.exec.Do(ctx, RouteUsers, storefront.RequestOptions{
		Method: http.MethodPost,
		Body:   user,
	})
}

// ChangePassword updates the current user's password.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) storefront.Result {
	return s.exec.Do(ctx, RouteAuthChangePassword, storefront.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"currentPassword": current, "newPassword": next},
	})
}

// UserService wraps the user and profile endpoints.
type UserService struct {
	exec storefront.Requester
}

var _ storefront.RoleFetcher = (*UserService)(nil)

// NewUserService creates a UserService over the given executor.
func NewUserService(exec storefront.Requester) *UserService {
	return &UserService{exec: exec}
}

// MyInfo fetches the current user's profile, unwrapped from its envelope.
func (s *UserService) MyInfo(ctx context.Context, token string) (map[string]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteMyInfo, storefront.RequestOptions{Token: token})
	m, _ := ExtractResult(res.Body).(map[string]any)
	return m, res
}

// FetchRole resolves the server-side role for a token from the profile
// endpoint. The backend has answered several shapes over time; the lookup
// chain mirrors them in priority order.
func (s *UserService) FetchRole(ctx context.Context, token string) (string, error) {
	res := s.exec.Do(ctx, RouteMyInfo, storefront.RequestOptions{Token: token})
	if !res.OK {
		if res.Err != nil {
			return "", fmt.Errorf("rest: fetch role: %w", res.Err)
		}
		return "", fmt.Errorf("rest: fetch role: status %d: %s", res.Status, res.Body.Message("request failed"))
	}
	if role := ResolveRole(res.Body.Map()); role != "" {
		return role, nil
	}
	return "", fmt.Errorf("rest: no role in profile response")
}

// ResolveRole extracts a role name from a profile payload, trying in
// order: result.role.name, role.name, result.role, role,
// result.authorities[0].authority, authorities[0].authority.
func ResolveRole(data map[string]any) string {
	for _, path := range [][]any{
		{"result", "role", "name"},
		{"role", "name"},
		{"result", "role"},
		{"role"},
		{"result", "authorities", 0, "authority"},
		{"authorities", 0, "authority"},
	} {
		if s, ok := dig(data, path...).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// dig walks a decoded JSON value by map keys and array indexes, returning
// nil when any step is missing.
func dig(v any, path ...any) any {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = m[key]
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil
			}
			cur = arr[key]
		default:
			return nil
		}
	}
	return cur
}

// CatalogService wraps the product and category endpoints.
type CatalogService struct {
	exec storefront.Requester
}

// NewCatalogService creates a CatalogService over the given executor.
func NewCatalogService(exec storefront.Requester) *CatalogService {
	return &CatalogService{exec: exec}
}

// ActiveProducts lists products visible to customers.
func (s *CatalogService) ActiveProducts(ctx context.Context) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteProductsActive, storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// ProductsByCategory lists products in one category.
func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteProductsByCategory(categoryID), storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// SearchProducts performs a keyword search.
func (s *CatalogService) SearchProducts(ctx context.Context, keyword string) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteProductSearch(keyword), storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// ActiveCategories lists the visible category tree roots.
func (s *CatalogService) ActiveCategories(ctx context.Context) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteCategoriesActive, storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// ChatService wraps the buyer-seller messaging endpoints.
type ChatService struct {
	exec storefront.Requester
}

// NewChatService creates a ChatService over the given executor.
func NewChatService(exec storefront.Requester) *ChatService {
	return &ChatService{exec: exec}
}

// Send delivers a message to a receiver.
func (s *ChatService) Send(ctx context.Context, message, receiverID string) storefront.Result {
	return s.exec.Do(ctx, RouteChatSend, storefront.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"message": message, "receiverId": receiverID},
	})
}

// Conversations lists the current user's conversations.
func (s *ChatService) Conversations(ctx context.Context) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteChatConversations, storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// Conversation lists the messages exchanged with one partner.
func (s *ChatService) Conversation(ctx context.Context, partnerID string) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteChatConversation(partnerID), storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// MarkRead marks a conversation's messages as read.
func (s *ChatService) MarkRead(ctx context.Context, partnerID string) storefront.Result {
	return s.exec.Do(ctx, RouteChatMarkRead(partnerID), storefront.RequestOptions{
		Method: http.MethodPost,
	})
}

// UnreadCount reports the number of unread messages.
func (s *ChatService) UnreadCount(ctx context.Context) (int, storefront.Result) {
	res := s.exec.Do(ctx, RouteChatUnreadCount, storefront.RequestOptions{})
	n, _ := ExtractResult(res.Body).(float64)
	return int(n), res
}

// CustomerSupport resolves the support contact for the current customer.
func (s *ChatService) CustomerSupport(ctx context.Context) (map[string]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteChatCustomerSupport, storefront.RequestOptions{})
	m, _ := ExtractResult(res.Body).(map[string]any)
	return m, res
}

// OrderService wraps the order endpoints.
type OrderService struct {
	exec storefront.Requester
}

// NewOrderService creates an OrderService over the given executor.
func NewOrderService(exec storefront.Requester) *OrderService {
	return &OrderService{exec: exec}
}

// MyOrders lists the current user's orders.
func (s *OrderService) MyOrders(ctx context.Context) ([]any, storefront.Result) {
	res := s.exec.Do(ctx, RouteOrdersMine, storefront.RequestOptions{})
	return ExtractList(res.Body), res
}

// Confirm confirms a pending order.
func (s *OrderService) Confirm(ctx context.Context, orderID string) storefront.Result {
	return s.exec.Do(ctx, RouteOrderConfirm(orderID), storefront.RequestOptions{
		Method: http.MethodPost,
	})
}

// Cancel cancels an order with an optional reason.
func (s *OrderService) Cancel(ctx context.Context, orderID, reason string) storefront.Result {
	return s.exec.Do(ctx, RouteOrderCancel(orderID), storefront.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"reason": reason},
	})
}
