package log

import "gastos/internal/core"

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"

	FieldCategoryPath = "category_path"
	FieldAmountCents  = "amount_cents"
	FieldQuantity     = "quantity"
	FieldRef          = "ref"

	FieldItemQuery  = "item_query"
	FieldMatchLevel = "match_level"
	FieldMatchLabel = "match_label"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentVoice     = "voice"
	ComponentCatalog   = "catalog"
	ComponentExpense   = "expense"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentRecurring = "recurring"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operation names.
const (
	OpCreate    = "create"
	OpList      = "list"
	OpParse     = "parse"
	OpResolve   = "resolve"
	OpConfirm   = "confirm"
	OpLearn     = "learn"
	OpImport    = "import"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
	OpRecurring = "recurring"
)

// LogFields is a small builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithUser(userID string) LogFields {
	if userID != "" {
		f[FieldUserID] = userID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithExpense(e core.Expense) LogFields {
	f[FieldCategoryPath] = e.Path.String()
	f[FieldAmountCents] = e.Amount.Cents
	f[FieldQuantity] = e.Quantity.String()
	if e.MatchLevel != "" {
		f[FieldMatchLevel] = e.MatchLevel
	}
	return f
}

// WithMatch records how a voice query was resolved.
func (f LogFields) WithMatch(query, level, label string) LogFields {
	f[FieldItemQuery] = query
	f[FieldMatchLevel] = level
	f[FieldMatchLabel] = label
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts the fields to slog key/value arguments.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
