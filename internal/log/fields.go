package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldSubcomponent = "subsystem"
	FieldRunID        = "run_id"
	FieldCommand      = "command"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldYear         = "year"
	FieldSource       = "source"
	FieldSourceType   = "source_type"
	FieldRows         = "rows"
	FieldKept         = "kept"
	FieldDropped      = "dropped"
	FieldOrders       = "orders"
	FieldCacheHit     = "cache_hit"
	FieldExchange     = "exchange"
	FieldRoutingKey   = "routing_key"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentIntake  = "intake"
	ComponentRecap   = "recap"
	ComponentExplore = "explore"
	ComponentRender  = "render"
	ComponentAMQP    = "amqp"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpLoad      = "load"
	OpNormalize = "normalize"
	OpYears     = "years"
	OpRecap     = "recap"
	OpPublish   = "publish"
	OpExplore   = "explore"
	OpExport    = "export"
	OpRender    = "render"
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

// WithRunID adds the run identifier
func (f LogFields) WithRunID(runID string) LogFields {
	f[FieldRunID] = runID
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

// WithYear adds the selected year; 0 is logged as "all"
func (f LogFields) WithYear(year int) LogFields {
	if year == 0 {
		f[FieldYear] = "all"
	} else {
		f[FieldYear] = year
	}
	return f
}

// WithSource adds the intake source description
func (f LogFields) WithSource(sourceType, source string) LogFields {
	f[FieldSourceType] = sourceType
	f[FieldSource] = source
	return f
}

// WithNormalize adds the row counts of a normalization pass
func (f LogFields) WithNormalize(rows, kept, dropped int) LogFields {
	f[FieldRows] = rows
	f[FieldKept] = kept
	f[FieldDropped] = dropped
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
