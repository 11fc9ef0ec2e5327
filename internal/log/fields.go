package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldSourceFile = "source_file"
	FieldDocNumber  = "doc_number"
	FieldDocType    = "doc_type"
	FieldIssuer     = "issuer"
	FieldCurrency   = "currency"
	FieldTotalCents = "total_cents"
	FieldCount      = "count"
	FieldDuration   = "duration_ms"
	FieldBackend    = "backend"
	FieldModel      = "model"
	FieldPath       = "path"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentPipeline = "pipeline"
	ComponentExtract  = "extract"
	ComponentLLM      = "llm"
	ComponentStorage  = "storage"
	ComponentExporter = "exporter"
	ComponentReport   = "report"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
)

// Operations defines standard operation names
const (
	OpConvert  = "convert"
	OpParse    = "parse"
	OpStore    = "store"
	OpExport   = "export"
	OpRender   = "render"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
