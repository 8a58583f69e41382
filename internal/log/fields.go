package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
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
	FieldRunID      = "run_id"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldRows       = "rows"
	FieldNetWorth   = "net_worth"
	FieldAnomaly    = "anomaly"
	FieldReason     = "reason"
	FieldSubject    = "subject"
	FieldDetail     = "detail"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
	ComponentRebuild = "rebuild"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpWrite    = "write"
	OpClear    = "clear"
	OpImport   = "import"
	OpRebuild  = "rebuild"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
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

// WithRun adds the rebuild run id
func (f LogFields) WithRun(runID string) LogFields {
	f[FieldRunID] = runID
	return f
}

// WithMonth adds the month ledger name and its row count
func (f LogFields) WithMonth(month string, rows int) LogFields {
	f[FieldMonth] = month
	f[FieldRows] = rows
	return f
}

// WithAnomaly adds the fields describing a skipped or coerced input row
func (f LogFields) WithAnomaly(kind, month, subject, detail string) LogFields {
	f[FieldAnomaly] = kind
	f[FieldMonth] = month
	f[FieldSubject] = subject
	if detail != "" {
		f[FieldDetail] = detail
	}
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
