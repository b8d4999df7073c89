package auth

// Known OAuth scopes used by the template service.
const (
	ScopeTemplatesWrite = "templates:write"
	ScopeTemplatesRead  = "templates:read"
)
