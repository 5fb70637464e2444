package storefront

// Credential storage keys shared by the store, refresh coordinator and
// auto-logout controller.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyDisplayName  = "displayName"
)

// Tier identifies a credential storage tier.
type Tier int

const (
	// TierSession is cleared when the process (or tab session) ends.
	TierSession Tier = iota
	// TierDurable persists across restarts ("remember me").
	TierDurable
)

// String returns the tier name for logs and storage namespacing.
func (t Tier) String() string {
	switch t {
	case TierSession:
		return "session"
	case TierDurable:
		return "durable"
	default:
		return "unknown"
	}
}

// Broadcast topics dispatched whenever credential state changes.
// Cross-component listeners outside the session tree subscribe to these.
const (
	TopicTokenUpdated       = "tokenUpdated"
	TopicDisplayNameUpdated = "displayNameUpdated"
	TopicSessionExpired     = "sessionExpired"
)

// BodyKind tags the parsed shape of a response body.
type BodyKind int

const (
	// BodyEmpty marks a 204 or bodiless response.
	BodyEmpty BodyKind = iota
	// BodyJSON marks a successfully decoded JSON body.
	BodyJSON
	// BodyText marks a non-JSON (or unparseable) textual body.
	BodyText
)

// Body is the tagged result of response parsing: exactly one of JSON or
// Text is meaningful, selected by Kind.
type Body struct {
	Kind BodyKind
	// JSON holds the decoded value when Kind == BodyJSON.
	JSON any
	// Text holds the raw body when Kind == BodyText.
	Text string
}

// Map returns the body as a JSON object, or an empty map when the body is
// not a JSON object. Text bodies surface as {"message": text, "raw": text}
// so callers always have a uniform error shape to read.
func (b Body) Map() map[string]any {
	switch b.Kind {
	case BodyJSON:
		if m, ok := b.JSON.(map[string]any); ok {
			return m
		}
		return map[string]any{}
	case BodyText:
		return map[string]any{"message": b.Text, "raw": b.Text}
	default:
		return map[string]any{}
	}
}

// Message extracts the backend's human-readable message, checking the
// "message" then "error" fields, falling back to fallback.
func (b Body) Message(fallback string) string {
	m := b.Map()
	if s, ok := m["message"].(string); ok && s != "" {
		return s
	}
	if s, ok := m["error"].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Result is the outcome of an executed API request. The executor never
// returns a Go error for reachable failures; OK and Status carry the
// outcome and Err is diagnostic only.
type Result struct {
	OK     bool
	Status int
	Body   Body

	// AutoLoggedOut is set when the failure exhausted the session and the
	// auto-logout controller was triggered, so UI layers can show a
	// specific "session expired" message.
	AutoLoggedOut bool

	// Err records the underlying transport or encoding error, if any.
	// Control flow should use OK/Status; Err exists for diagnostics.
	Err error
}

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field   string
	Name    string
	Content []byte
}

// Form describes a multipart/form-data request body. When set on
// RequestOptions, the executor omits the JSON Content-Type header and lets
// the multipart writer provide its own.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// RequestOptions configures a single API request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Body is JSON-serialized unless Form is set.
	Body any

	// Form switches the request to multipart/form-data.
	Form *Form

	// Token overrides credential store resolution for this request.
	Token string

	// SkipAuthCheck disables 401 refresh handling, used by callers that
	// manage authentication themselves (the refresh endpoint itself).
	SkipAuthCheck bool

	// Retry marks a request replayed after a successful refresh. The
	// executor sets it on the single retried attempt; callers leave it
	// unset.
	Retry bool
}

// Session roles resolved from the backend profile endpoint.
const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// AuthStep identifies which auth dialog, if any, the UI should present.
type AuthStep string

const (
	StepClosed   AuthStep = ""
	StepLogin    AuthStep = "login"
	StepRegister AuthStep = "register"
)

// Snapshot is an immutable view of the session state handed to subscribers.
type Snapshot struct {
	Token        string
	Role         string
	Loading      bool
	RedirectPath string
	Step         AuthStep
}

// LoggedIn reports whether the snapshot carries a live token.
func (s Snapshot) LoggedIn() bool { return s.Token != "" }
