package log

import (
	"net/http"
	"time"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldMerchant      = "merchant"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentStore  = "store"
	ComponentWorker = "worker"
)

// Operations defines standard operation names
const (
	OpCreate  = "create"
	OpAnalyze = "analyze"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the month key field
func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id, merchant string, amountCents int64, category string) LogFields {
	f[FieldTransactionID] = id
	f[FieldMerchant] = merchant
	f[FieldAmountCents] = amountCents
	f[FieldCategory] = category
	return f
}

// WithRequest adds HTTP request fields. Query, user agent and referer
// are only set when present so quiet requests stay on one line.
func (f LogFields) WithRequest(r *http.Request) LogFields {
	f[FieldMethod] = r.Method
	f[FieldPath] = r.URL.Path
	if q := r.URL.RawQuery; q != "" {
		f[FieldQuery] = q
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		f[FieldUserAgent] = ua
	}
	if ref := r.Header.Get("Referer"); ref != "" {
		f[FieldReferer] = ref
	}
	return f
}

// WithResponse adds HTTP response fields
func (f LogFields) WithResponse(statusCode int, duration time.Duration) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = duration.Milliseconds()
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
