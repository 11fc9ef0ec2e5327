package llm

// billSchema is the structured-output contract sent with every completion
// request. Strict mode requires every property to be listed under
// "required"; optional fields are nullable instead.
const billSchema = `{
  "type": "object",
  "properties": {
    "doc_type": {
      "type": "string",
      "enum": ["invoice", "receipt", "credit_note", "utility_bill", "other"],
      "description": "Type of document"
    },
    "doc_number": {
      "type": "string",
      "description": "Unique identifier of the document"
    },
    "issue_date": {
      "type": "string",
      "description": "Date of issuance in YYYY-MM-DD format"
    },
    "currency": {
      "type": "string",
      "description": "Currency code (ISO 4217)"
    },
    "issuer_name": {
      "type": "string",
      "description": "Name of the entity issuing the bill"
    },
    "issuer_tax_id": {
      "type": "string",
      "description": "Tax ID of the issuer (VAT/GST/EIN)"
    },
    "issuer_address": {
      "type": ["string", "null"],
      "description": "Address of the issuer"
    },
    "customer_name": {
      "type": ["string", "null"],
      "description": "Name of the recipient"
    },
    "customer_tax_id": {
      "type": ["string", "null"],
      "description": "Tax ID of the recipient"
    },
    "subtotal_amount": {
      "type": "number",
      "description": "Total amount before tax"
    },
    "tax_amount": {
      "type": ["number", "null"],
      "description": "Total tax amount"
    },
    "total_amount": {
      "type": "number",
      "description": "Final total amount to pay"
    },
    "description": {
      "type": ["string", "null"],
      "description": "Description of the main item or service"
    },
    "quantity": {
      "type": ["number", "null"],
      "description": "Quantity of the main item"
    }
  },
  "required": [
    "doc_type", "doc_number", "issue_date", "currency",
    "issuer_name", "issuer_tax_id", "issuer_address",
    "customer_name", "customer_tax_id",
    "subtotal_amount", "tax_amount", "total_amount",
    "description", "quantity"
  ],
  "additionalProperties": false
}`

// systemPrompt mirrors the extraction instructions of the original pipeline.
const systemPrompt = "You are an expert data extraction assistant. " +
	"Extract the following information from the provided bill/invoice markdown text. " +
	"Ensure all required fields are populated accurately based on the document content."
