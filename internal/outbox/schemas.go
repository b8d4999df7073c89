package outbox

const templateCreatedSchema = `{
  "type": "object",
  "title": "TemplateCreated",
  "properties": {
    "template_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "name": {"type": "string"},
    "intensity": {"type": "string", "enum": ["SANFT", "AKTIV", "POWER"]},
    "created_at": {"type": "string", "format": "date-time"},
    "version": {"type": "string"}
  },
  "required": ["template_id", "tenant_id", "user_id", "name", "intensity", "created_at", "version"],
  "additionalProperties": false
}`

const templateClassifiedSchema = `{
  "type": "object",
  "title": "TemplateClassified",
  "properties": {
    "template_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "name": {"type": "string"},
    "intensity": {"type": "string", "enum": ["SANFT", "AKTIV", "POWER"]},
    "previous_intensity": {"type": "string"},
    "trigger": {"type": "string", "enum": ["create", "rename", "backfill"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["template_id", "tenant_id", "user_id", "name", "intensity", "trigger", "occurred_at"],
  "additionalProperties": false
}`
